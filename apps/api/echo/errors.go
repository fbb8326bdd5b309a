package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/feewizard"
	"github.com/trezcool/masomo-admin/core/staff"
	"github.com/trezcool/masomo-admin/services/backend"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// badRequestErrs are domain errors caused by the request itself.
var badRequestErrs = []error{
	fee.ErrIndexOutOfRange,
	fee.ErrUnknownField,
	fee.ErrInvalidValue,
	fee.ErrBucketNotFound,
	fee.ErrUnknownAction,
	calendar.ErrWrongPhase,
	calendar.ErrInvalidYearName,
	calendar.ErrUnknownTemplate,
	feewizard.ErrUnknownStep,
	feewizard.ErrNotEditing,
}

func isBadRequest(cause error) bool {
	for _, e := range badRequestErrs {
		if cause == e {
			return true
		}
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, fe := range core.TranslateValidationErrors(origErr, translator) {
				fldErrs[fe.Field] = fe.Error
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *feewizard.PartialFailureError:
			code = http.StatusMultiStatus
			message = echo.Map{"error": origErr.Error(), "report": origErr.Report}
		case *calendar.TermsError:
			code = http.StatusMultiStatus
			message = echo.Map{"error": origErr.Error(), "created": origErr.Created, "failures": origErr.Failures}
		case *backend.GraphQLError, *backend.HTTPError:
			code = http.StatusBadGateway
			message = core.UserMessage(err)
			logger.Warn("backend error", err)
		default:
			switch {
			case cause == fee.ErrNotFound || cause == staff.ErrNotFound:
				code = http.StatusNotFound
				message = err.Error()
			case cause == fee.ErrNoValidBuckets || cause == fee.ErrNoValidTerms:
				code = http.StatusUnprocessableEntity
				message = cause.Error()
			case isBadRequest(cause):
				code = http.StatusBadRequest
				message = err.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				args := []interface{}{errors.Wrap(err, msg)}
				if actor, ok := contextActor(ctx); ok {
					args = append(args, actor)
				}
				logger.Error(msg, args...)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
