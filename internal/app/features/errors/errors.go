// internal/app/features/errors/errors.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"go.uber.org/zap"
)

// DismissAfterMS tells clients how long to show a transient error banner.
const DismissAfterMS = 4000

// Error codes used in the JSON envelope.
const (
	CodeBadRequest   = "bad_request"
	CodeValidation   = "validation_failed"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeRateLimited  = "rate_limited"
	CodeServerError  = "server_error"
	CodeUnavailable  = "unavailable"
)

// ErrorLogger logs failures with request context and writes the JSON error
// envelope. Handlers call it instead of writing error responses directly.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, extra []zap.Field) []zap.Field {
	out := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if _, _, uid, ok := authz.UserCtx(r); ok {
		out = append(out, zap.String("user_id", uid.Hex()))
	}
	return append(out, extra...)
}

// LogServerError logs err at error level and responds 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string, fields ...zap.Field) {
	e.Log.Error(logMsg, e.fields(r, append(fields, zap.Error(err)))...)
	if userMsg == "" {
		userMsg = "Something went wrong. Please try again."
	}
	WriteError(w, http.StatusInternalServerError, CodeServerError, userMsg)
}

// LogBadRequest logs at debug level and responds 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.Log.Debug(logMsg, e.fields(r, []zap.Field{zap.Error(err)})...)
	WriteError(w, http.StatusBadRequest, CodeBadRequest, userMsg)
}

// LogForbidden logs at warn level and responds 403 with userMsg.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, logMsg string, userMsg string) {
	e.Log.Warn(logMsg, e.fields(r, nil)...)
	if userMsg == "" {
		userMsg = "You don't have permission to do that."
	}
	WriteError(w, http.StatusForbidden, CodeForbidden, userMsg)
}

// Mapping pairs a sentinel error with the response it produces.
type Mapping struct {
	Err    error
	Status int
	Code   string
}

// Handle writes the response of the first mapping whose Err matches err,
// using the sentinel's message. Anything unmapped is a server error.
func (e *ErrorLogger) Handle(w http.ResponseWriter, r *http.Request, logMsg string, err error, mappings ...Mapping) {
	for _, m := range mappings {
		if stderrors.Is(err, m.Err) {
			WriteError(w, m.Status, m.Code, m.Err.Error())
			return
		}
	}
	e.LogServerError(w, r, logMsg, err, "")
}

// Conflict builds a 409 mapping for err.
func Conflict(err error) Mapping {
	return Mapping{Err: err, Status: http.StatusConflict, Code: CodeConflict}
}

// NotFoundFor builds a 404 mapping for err.
func NotFoundFor(err error) Mapping {
	return Mapping{Err: err, Status: http.StatusNotFound, Code: CodeNotFound}
}

// ForbiddenFor builds a 403 mapping for err.
func ForbiddenFor(err error) Mapping {
	return Mapping{Err: err, Status: http.StatusForbidden, Code: CodeForbidden}
}

// BadRequestFor builds a 400 mapping for err.
func BadRequestFor(err error) Mapping {
	return Mapping{Err: err, Status: http.StatusBadRequest, Code: CodeBadRequest}
}
