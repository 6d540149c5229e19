package server

import (
	stderrors "errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/catxpapa/catxframeup/pkg/errors"
)

// envelope is the JSON body of every /api response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, r *http.Request, msg string) {
	render.JSON(w, r, envelope{Success: true, Message: msg})
}

// statusFor maps an error to an HTTP status by its code.
func statusFor(err error) int {
	var mbe *http.MaxBytesError
	if stderrors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	code := errors.GetCode(err)
	switch {
	case code == errors.ErrCodeNotFound:
		return http.StatusNotFound
	case code.IsValidation():
		return http.StatusBadRequest
	case code == errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case code == errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, statusFor(err))
	render.JSON(w, r, envelope{Error: errors.UserMessage(err)})
}

func failStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Error: msg})
}
