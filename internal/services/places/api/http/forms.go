package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
)

const (
	maxBodyBytes     = 2 << 20
	maxMultipartMem  = 1 << 20
	imageField       = "image"
	mediaMultipart   = "multipart/form-data"
	mediaURLEncoding = "application/x-www-form-urlencoded"
)

func invalidBody(cause error) error {
	return apperrors.Wrap(apperrors.CodeInvalidInput, "Invalid input.", cause)
}

// fields holds the string values of a JSON or form body.
type fields map[string]string

// readFields decodes a JSON, urlencoded or multipart body into fields.
func readFields(w http.ResponseWriter, r *http.Request) (fields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	out := fields{}
	switch mediaType {
	case mediaMultipart:
		if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
			return nil, invalidBody(err)
		}
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				out[key] = values[0]
			}
		}
	case mediaURLEncoding:
		if err := r.ParseForm(); err != nil {
			return nil, invalidBody(err)
		}
		for key := range r.PostForm {
			out[key] = r.PostForm.Get(key)
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
			return nil, invalidBody(err)
		}
	}
	return out, nil
}

// imageFile returns the uploaded image of a multipart request, if any.
func imageFile(r *http.Request) (multipart.File, bool, error) {
	if r.MultipartForm == nil {
		return nil, false, nil
	}
	file, _, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, invalidBody(err)
	}
	return file, true, nil
}
