package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/media"
)

// multipartMemory is how much of a multipart body ParseMultipartForm keeps
// in memory; larger files spill to temp files.
const multipartMemory = 32 << 20

// validate checks request DTOs. Field names in its errors are the JSON
// names, so they can go straight into ErrorResponse.Field.
var validate = newValidator()

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

// decodeJSON decodes the body into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("", "request body is required")
		}
		return apperror.ValidationFailed("", "request body must be valid JSON")
	}
	return validateStruct(dst)
}

// validateStruct turns the first validator failure into a ValidationFailed.
func validateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("handler: validating request: %w", err)
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperror.ValidationFailed(field, field+" is required")
	case "max":
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	case "min":
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
	case "oneof":
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be one of %s", field, fe.Param()))
	default:
		return apperror.ValidationFailed(field, field+" is invalid")
	}
}

// isMultipart reports whether the request carries a multipart form.
func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// parseMultipart caps the body at maxBytes and parses the form.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if !isMultipart(r) {
		return apperror.ValidationFailed("", "request must be multipart/form-data")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperror.ValidationFailed("", fmt.Sprintf("upload must not exceed %d bytes", tooBig.Limit))
		}
		return apperror.ValidationFailed("", "malformed multipart form")
	}
	return nil
}

// formFile returns the uploaded file under field, or nil when there is
// none. The caller closes the returned object's body with closeUpload.
func formFile(r *http.Request, field string) (*media.Object, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, apperror.ValidationFailed(field, "could not read "+field)
	}
	return &media.Object{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        f,
	}, nil
}

func closeUpload(obj *media.Object) {
	if obj == nil {
		return
	}
	if c, ok := obj.Body.(io.Closer); ok {
		_ = c.Close()
	}
}

// formValue returns the form value or nil when the field was not sent, so
// partial updates can tell "absent" from "empty".
func formValue(r *http.Request, field string) *string {
	if r.MultipartForm != nil {
		if vs, ok := r.MultipartForm.Value[field]; ok && len(vs) > 0 {
			return &vs[0]
		}
		return nil
	}
	if vs, ok := r.PostForm[field]; ok && len(vs) > 0 {
		return &vs[0]
	}
	return nil
}

// idParam reads a path parameter that must be an xid.
func idParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if _, err := xid.FromString(v); err != nil {
		return "", apperror.ValidationFailed(name, "invalid "+name)
	}
	return v, nil
}

// pageParams reads ?page= and ?limit=. Missing values fall back to the
// defaults; values that are not numbers are rejected.
func pageParams(r *http.Request) (int, int, error) {
	page, err := intQuery(r, "page")
	if err != nil {
		return 0, 0, err
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(name, name+" must be a positive integer")
	}
	return n, nil
}
