// Package formutil decodes JSON request bodies for the API handlers.
//
// Bodies are capped at MaxBodyBytes, unknown fields are rejected, and a
// body must hold exactly one JSON value. Errors are phrased for clients.
//
// Example usage:
//
//	var in struct {
//		Email    string `json:"email" validate:"required,email"`
//		Password string `json:"password" validate:"required"`
//	}
//	if err := formutil.Decode(w, r, &in); err != nil {
//		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
//		return
//	}
package formutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 64 << 10

var (
	ErrEmptyBody    = errors.New("request body is empty")
	ErrBodyTooLarge = errors.New("request body is too large")
	ErrMultiple     = errors.New("request body must contain a single JSON object")
)

// Decode reads one JSON value from r's body into v.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return describe(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultiple
	}
	return nil
}

func describe(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return ErrEmptyBody
	case errors.As(err, &maxErr):
		return ErrBodyTooLarge
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("request body is not valid JSON")
	case errors.As(err, &typeErr):
		return fmt.Errorf("field %q has the wrong type", typeErr.Field)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return fmt.Errorf("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
	}
	return errors.New("request body could not be read")
}
