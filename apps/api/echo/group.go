package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core/group"
	"github.com/darasa-app/darasa/core/user"
)

var errGroupNotFoundInCtx = errors.New("group object not found in echo.Context")

type groupApi struct {
	service group.Service
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc group.Service, userSvc user.Service) {
	api := groupApi{service: svc}

	gg := g.Group("/groups", jwt, mustChangePasswordMiddleware(userSvc))
	gg.POST("", api.groupCreate, adminMiddleware())
	gg.GET("", api.groupQuery)

	dg := gg.Group("/:id", api.groupMiddleware())
	dg.GET("", api.groupRetrieve)
	dg.PUT("", api.groupUpdate, adminMiddleware())
	dg.DELETE("", api.groupDestroy, adminMiddleware())
	dg.GET("/members", api.groupQueryMembers)
	dg.POST("/members", api.groupAddMembers, adminMiddleware())
	dg.DELETE("/members", api.groupRemoveMembers, adminMiddleware())
}

func (api *groupApi) groupCreate(ctx echo.Context) error {
	data := new(group.NewGroup)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	grp, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) groupQuery(ctx echo.Context) error {
	groups, err := api.service.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) groupRetrieve(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errGroupNotFoundInCtx
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) groupUpdate(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errGroupNotFoundInCtx
	}

	data := new(group.UpdateGroup)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(grp); err != nil {
		return err
	}

	grp, err := api.service.Update(ctx.Request().Context(), grp.ID, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) groupDestroy(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errGroupNotFoundInCtx
	}
	if err := api.service.Delete(ctx.Request().Context(), grp.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) groupQueryMembers(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errGroupNotFoundInCtx
	}
	members, err := api.service.Members(ctx.Request().Context(), grp.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *groupApi) groupAddMembers(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errGroupNotFoundInCtx
	}

	data := new(group.AddMembersRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.service.AddMembers(ctx.Request().Context(), grp.ID, data.UserIDs...); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) groupRemoveMembers(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errGroupNotFoundInCtx
	}

	data := new(group.AddMembersRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.service.RemoveMembers(ctx.Request().Context(), grp.ID, data.UserIDs...); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// groupMiddleware loads the group for detail routes into the context.
func (api *groupApi) groupMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if id := ctx.Param("id"); id != "" {
				grp, err := api.service.GetByID(ctx.Request().Context(), id)
				if err == nil {
					ctx.Set("object", grp)
					return next(ctx)
				} else if err != group.ErrNotFound {
					return err
				}
			}
			return errNotFound
		}
	}
}
