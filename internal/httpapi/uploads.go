package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"eventhub/internal/objectstore"
)

const (
	maxUploadBytes = 32 << 20
	maxFileBytes   = 10 << 20
)

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	return r.ParseMultipartForm(maxUploadBytes)
}

// formFiles reads every file uploaded under field.
func formFiles(r *http.Request, field string) ([]objectstore.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	files := make([]objectstore.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// formFile reads the first file uploaded under field, or nil if there is none.
func formFile(r *http.Request, field string) (*objectstore.File, error) {
	files, err := formFiles(r, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}

func readFile(fh *multipart.FileHeader) (objectstore.File, error) {
	src, err := fh.Open()
	if err != nil {
		return objectstore.File{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxFileBytes+1))
	if err != nil {
		return objectstore.File{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	if len(data) > maxFileBytes {
		return objectstore.File{}, fmt.Errorf("upload %s exceeds %d bytes", fh.Filename, maxFileBytes)
	}
	return objectstore.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}
