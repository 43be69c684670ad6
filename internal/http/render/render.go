package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/doctrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/doctrack/internal/library"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

type errorResponse struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		middleware.Logger(r.Context()).Error("failed to encode response", "error", err)
	}
}

// Error maps a service error onto its status code. Guard violations carry
// their reason to the client; internal errors are logged and hidden.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var guard *routing.GuardError

	switch {
	case errors.As(err, &guard):
		JSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: guard.Reason})
	case errors.Is(err, routing.ErrNotFound), errors.Is(err, library.ErrNotFound):
		JSON(w, r, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, routing.ErrValidation), errors.Is(err, library.ErrInvalidImport):
		JSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, routing.ErrConflict):
		JSON(w, r, http.StatusConflict, errorResponse{Error: "the document is being updated by another office, try again"})
	default:
		middleware.Logger(r.Context()).Error("request failed", "error", err)
		JSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	JSON(w, r, http.StatusBadRequest, errorResponse{Error: msg})
}

// Decode reads a JSON body into v and runs its validate tags. An empty body
// decodes to the zero value.
func Decode(r *http.Request, v any) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("invalid request body: %w", err)
		}
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errors.New(describe(verrs))
		}

		return err
	}

	return nil
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))

	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}

	return strings.Join(msgs, "; ")
}

// Actor returns the acting office set by middleware.Auth, answering 401 when
// the request is unauthenticated.
func Actor(w http.ResponseWriter, r *http.Request) (routing.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		JSON(w, r, http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
	}

	return actor, ok
}
