package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxRequestBodyBytes caps JSON request bodies.
const MaxRequestBodyBytes = 1 << 20

// ErrEmptyBody is returned by DecodeJSON for a request without a body.
var ErrEmptyBody = errors.New("request body is empty")

// Global validator instance for reuse
var validate = validator.New()

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	err := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	return err
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted.
func DecodeOptionalJSON(r *http.Request, v any) error {
	if err := DecodeJSON(r, v); err != nil && !errors.Is(err, ErrEmptyBody) {
		return err
	}
	return nil
}

// ValidateRequest validates v with its own Validate method when it has one,
// otherwise with its struct tags.
func ValidateRequest(v any) error {
	if vv, ok := v.(interface{ Validate() error }); ok {
		return vv.Validate()
	}
	return validate.Struct(v)
}
