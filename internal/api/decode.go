package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"blogify/internal/apperr"
)

var errEmptyBody = errors.New("empty body")

// decodeJSON reads exactly one JSON value from the request body into dst.
// Unknown fields are rejected.
func decodeJSON(r *http.Request, dst any) error {
	err := decodeBody(r, dst)
	if errors.Is(err, errEmptyBody) {
		return invalidBody("Request body is required")
	}
	return err
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted.
func decodeOptionalJSON(r *http.Request, dst any) error {
	err := decodeBody(r, dst)
	if errors.Is(err, errEmptyBody) {
		return nil
	}
	return err
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return invalidBody("Request body too large")
		}
		return invalidBody("Invalid JSON body")
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalidBody("Invalid JSON body")
	}

	return nil
}

func invalidBody(message string) error {
	return apperr.Validation(apperr.FieldError{Field: "body", Message: message})
}
