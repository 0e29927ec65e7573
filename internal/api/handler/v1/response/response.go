package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

// Err is the JSON error envelope of every failed request.
type Err struct {
	Err            error              `json:"-"`
	HTTPStatusCode int                `json:"-"`
	StatusText     string             `json:"status_text"`
	ErrorText      string             `json:"error,omitempty"`
	Field          string             `json:"field,omitempty"`
	Reason         domain.BlockReason `json:"reason,omitempty"`
}

func (e *Err) Error() string {
	return e.ErrorText
}

func RenderErr(ctx *gin.Context, e *Err) {
	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Int("status", e.HTTPStatusCode),
			zap.Error(e.Err))
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func newErr(status int, err error, text string) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		ErrorText:      text,
	}
}

func ErrBadRequest(err error) *Err {
	return newErr(http.StatusBadRequest, err, err.Error())
}

func ErrNotFound(resource, key string, value any) *Err {
	err := fmt.Errorf("%s with %s=%v not found", resource, key, value)

	return newErr(http.StatusNotFound, err, err.Error())
}

func ErrUnauthenticated(err error) *Err {
	return newErr(http.StatusUnauthorized, err, err.Error())
}

func ErrWrongCredentials(err error) *Err {
	return newErr(http.StatusUnauthorized, err, "wrong email or password")
}

func ErrPermissionDenied(err error) *Err {
	return newErr(http.StatusForbidden, err, err.Error())
}

func ErrConflict(err error) *Err {
	return newErr(http.StatusConflict, err, err.Error())
}

func ErrPayloadTooLarge(limit int64) *Err {
	err := fmt.Errorf("request body exceeds %d bytes", limit)

	return newErr(http.StatusRequestEntityTooLarge, err, err.Error())
}

func ErrInternalServerError(err error) *Err {
	return newErr(http.StatusInternalServerError, err, "internal server error")
}

// FromDomain classifies err by the domain kind it wraps. The client sees only
// the innermost message of the wrap chain.
func FromDomain(err error) *Err {
	var e *Err

	switch {
	case errors.Is(err, domain.ErrValidation):
		e = newErr(http.StatusBadRequest, err, publicMessage(err))
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			e.Field = vErr.Field
		}
	case errors.Is(err, domain.ErrUnauthenticated):
		e = newErr(http.StatusUnauthorized, err, publicMessage(err))
	case errors.Is(err, domain.ErrPermission):
		e = newErr(http.StatusForbidden, err, publicMessage(err))
		var locked *domain.FieldLockedError
		if errors.As(err, &locked) {
			e.Field = locked.Field
		}
	case errors.Is(err, domain.ErrNotFound):
		e = newErr(http.StatusNotFound, err, publicMessage(err))
	case errors.Is(err, domain.ErrConflict):
		e = newErr(http.StatusConflict, err, publicMessage(err))
	case errors.Is(err, domain.ErrDelivery):
		e = newErr(http.StatusBadGateway, err, publicMessage(err))
	default:
		return ErrInternalServerError(err)
	}

	var admErr *domain.AdmissionError
	if errors.As(err, &admErr) {
		e.Reason = admErr.Reason
	}

	return e
}

// publicMessage drops the "a -> b -> " call trail the layers prepend.
func publicMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, " -> "); i >= 0 {
		return msg[i+len(" -> "):]
	}

	return msg
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
