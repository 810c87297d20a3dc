package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"igproxy/pkg/errors"
)

type urlRequest struct {
	URL string `json:"url" validate:"required"`
}

type usernameRequest struct {
	Username string `json:"username" validate:"required"`
}

// requiredMessages are the client messages for missing fields, keyed by JSON name
var requiredMessages = map[string]string{
	"url":      "URL is required",
	"username": "Username is required",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names in field errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// decodeRequest reads a JSON body into dst and validates it. An empty body
// is treated as an empty object so the missing field is reported.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := r.Body
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	if err := json.NewDecoder(body).Decode(dst); err != nil && !stderrors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.Validation("Request body too large")
		}
		return errors.Validation("Invalid JSON body")
	}

	if err := s.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			if msg, ok := requiredMessages[fieldErrs[0].Field()]; ok && fieldErrs[0].Tag() == "required" {
				return errors.Validation(msg)
			}
			return errors.Validation(fieldErrs[0].Field() + " is invalid")
		}
		return err
	}
	return nil
}
