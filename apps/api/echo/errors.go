package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/myschool-rw/myschool/core"
	"github.com/myschool-rw/myschool/core/school"
	"github.com/myschool-rw/myschool/core/student"
	"github.com/myschool-rw/myschool/core/visit"
	locksvc "github.com/myschool-rw/myschool/services/locker"
	xlsxsvc "github.com/myschool-rw/myschool/services/spreadsheet"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	msgValidation = "invalid data"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "admin not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errInvalidID     = echo.NewHTTPError(http.StatusBadRequest, "invalid id")

	// businessCodes maps the domain sentinels to their HTTP status.
	businessCodes = map[error]int{
		school.ErrNotFound:             http.StatusNotFound,
		student.ErrNotFound:            http.StatusNotFound,
		visit.ErrNotFound:              http.StatusNotFound,
		visit.ErrTenantMismatch:        http.StatusForbidden,
		visit.ErrFeatureNotAvailable:   http.StatusForbidden,
		visit.ErrDuplicateVisit:        http.StatusConflict,
		visit.ErrInvalidKind:           http.StatusBadRequest,
		visit.ErrMissingMovementMethod: http.StatusBadRequest,
		visit.ErrMissingPlateNumber:    http.StatusBadRequest,
		visit.ErrInvalidDateFormat:     http.StatusBadRequest,
		xlsxsvc.ErrInvalidFile:         http.StatusBadRequest,
		xlsxsvc.ErrInvalidFormat:       http.StatusBadRequest,
		locksvc.ErrLockTimeout:         http.StatusServiceUnavailable, // contention, the client may retry
	}
)

// businessCode returns the HTTP status of the domain sentinel wrapped by `err`, if any.
func businessCode(err error) (int, error) {
	for sentinel, code := range businessCodes {
		if errors.Is(err, sentinel) {
			return code, sentinel
		}
	}
	return 0, nil
}

type errorResponse struct {
	Status  string            `json:"status"`
	Message interface{}       `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		resp := errorResponse{Status: statusError}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				resp.Message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			resp.Message = origErr.Message
		case validator.ValidationErrors:
			resp.Fields = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				resp.Fields[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			resp.Message = msgValidation
		case *core.ValidationError:
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
			resp.Fields = origErr.FieldMap()
		default:
			if c, sentinel := businessCode(err); sentinel != nil {
				code = c
				resp.Message = sentinel.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			resp.Message = msg

			logger.Error(msg, errors.Wrap(err, msg), getContextActor(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}

			if ctx.Echo().Debug {
				resp.Message = err.Error()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
