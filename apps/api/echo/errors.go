package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/user"
)

var (
	errUnauthorized         = core.NewUnauthorizedError("user not authenticated")
	errAuthenticationFailed = core.NewInvalidCredentialsError("authentication failed")
	errAccountDeactivated   = core.NewForbiddenError("account deactivated")
	errMustChangePassword   = core.NewMustChangePasswordError()
	errRefreshExpired       = core.NewForbiddenError("refresh has expired")
	errForbidden            = core.NewForbiddenError("permission denied")
	errNotFound             = core.NewNotFoundError("not found")
)

type (
	// errorEnvelope is the uniform JSON shape of every error response.
	errorEnvelope struct {
		Error errorBody `json:"error"`
	}

	errorBody struct {
		Code       core.ErrorCode         `json:"code"`
		Message    string                 `json:"message"`
		StatusCode int                    `json:"statusCode"`
		Details    map[string]interface{} `json:"details,omitempty"`
	}
)

func newErrorBody(code core.ErrorCode, msg string, details map[string]interface{}) errorBody {
	return errorBody{
		Code:       code,
		Message:    msg,
		StatusCode: code.Status(),
		Details:    core.Redact(details),
	}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that converts any error
// returned by a handler into the uniform error envelope. It is the single place where
// the failure JSON shape is decided; handlers only ever return errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var body errorBody

		switch origErr := errors.Cause(err).(type) {
		case *core.APIError:
			body = newErrorBody(origErr.Code, origErr.Message, origErr.Details)

		case validator.ValidationErrors:
			issues := make([]map[string]string, 0, len(origErr))
			for _, vErr := range origErr {
				issues = append(issues, map[string]string{
					"field":   vErr.Field(),
					"message": vErr.Translate(core.Translator),
				})
			}
			body = newErrorBody(core.ErrCodeValidation, "invalid input", map[string]interface{}{"issues": issues})

		case *core.ValidationError:
			details := make(map[string]interface{})
			if origErr.Fields != nil {
				issues := make([]map[string]string, 0, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					issues = append(issues, map[string]string{"field": fErr.Field, "message": fErr.Error})
				}
				details["issues"] = issues
			}
			msg := origErr.Error()
			if msg == "" {
				msg = "invalid input"
			}
			body = newErrorBody(core.ErrCodeValidation, msg, details)

		case *echo.HTTPError:
			// binding errors & JWT middleware. ErrJWTMissing carries a 400;
			// force it to 401. An invalid token already comes in as a 401.
			if origErr == middleware.ErrJWTMissing {
				body = newErrorBody(core.ErrCodeUnauthorized, fmt.Sprintf("%v", origErr.Message), nil)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			body = newErrorBody(httpStatusCode(origErr.Code), fmt.Sprintf("%v", origErr.Message), nil)
			body.StatusCode = origErr.Code

		default: // any other error is a server error
			msg := http.StatusText(http.StatusInternalServerError)
			var details map[string]interface{}
			if ctx.Echo().Debug {
				msg = err.Error()
				details = map[string]interface{}{"stack": fmt.Sprintf("%+v", err)}
			}
			body = newErrorBody(core.ErrCodeInternal, msg, details)

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(body.StatusCode)
			} else {
				err = ctx.JSON(body.StatusCode, errorEnvelope{Error: body})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// httpStatusCode maps a raw HTTP status onto the closest taxonomy kind.
func httpStatusCode(status int) core.ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return core.ErrCodeUnauthorized
	case http.StatusForbidden:
		return core.ErrCodeForbidden
	case http.StatusNotFound:
		return core.ErrCodeNotFound
	case http.StatusConflict:
		return core.ErrCodeConflict
	case http.StatusTooManyRequests:
		return core.ErrCodeRateLimitExceeded
	}
	if status >= http.StatusInternalServerError {
		return core.ErrCodeInternal
	}
	return core.ErrCodeBadRequest
}
