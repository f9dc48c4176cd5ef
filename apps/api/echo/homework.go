package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core/homework"
	"github.com/darasa-app/darasa/core/user"
)

var errHomeworkNotFoundInCtx = errors.New("homework object not found in echo.Context")

type homeworkApi struct {
	service homework.Service
}

func registerHomeworkAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc homework.Service, userSvc user.Service) {
	api := homeworkApi{service: svc}

	// nested under groups
	gg := g.Group("/groups/:id/homework", jwt, mustChangePasswordMiddleware(userSvc))
	gg.POST("", api.homeworkCreate, adminMiddleware(user.RoleLecturer))
	gg.GET("", api.homeworkQuery)

	// detail endpoints
	dg := g.Group("/homework/:id", jwt, mustChangePasswordMiddleware(userSvc), api.homeworkMiddleware())
	dg.GET("", api.homeworkRetrieve)
	dg.PUT("", api.homeworkUpdate, adminMiddleware(user.RoleLecturer))
	dg.DELETE("", api.homeworkDestroy, adminMiddleware(user.RoleLecturer))
}

func (api *homeworkApi) homeworkCreate(ctx echo.Context) error {
	data := new(homework.NewHomework)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	hw, err := api.service.Create(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, hw)
}

func (api *homeworkApi) homeworkQuery(ctx echo.Context) error {
	hws, err := api.service.QueryByGroup(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, hws)
}

func (api *homeworkApi) homeworkRetrieve(ctx echo.Context) error {
	hw, ok := ctx.Get("object").(homework.Homework)
	if !ok {
		return errHomeworkNotFoundInCtx
	}
	return ctx.JSON(http.StatusOK, hw)
}

func (api *homeworkApi) homeworkUpdate(ctx echo.Context) error {
	hw, ok := ctx.Get("object").(homework.Homework)
	if !ok {
		return errHomeworkNotFoundInCtx
	}

	data := new(homework.UpdateHomework)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(hw); err != nil {
		return err
	}

	hw, err := api.service.Update(ctx.Request().Context(), hw.ID, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, hw)
}

func (api *homeworkApi) homeworkDestroy(ctx echo.Context) error {
	hw, ok := ctx.Get("object").(homework.Homework)
	if !ok {
		return errHomeworkNotFoundInCtx
	}
	if err := api.service.Delete(ctx.Request().Context(), hw.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *homeworkApi) homeworkMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if id := ctx.Param("id"); id != "" {
				hw, err := api.service.GetByID(ctx.Request().Context(), id)
				if err == nil {
					ctx.Set("object", hw)
					return next(ctx)
				} else if err != homework.ErrNotFound {
					return err
				}
			}
			return errNotFound
		}
	}
}
