// Package netx contains HTTP plumbing helpers shared by the API client.
package netx

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
)

// MultipartFile builds a multipart/form-data body containing a single file
// part. It returns the encoded body and the Content-Type header value
// (including the boundary) to set on the request.
func MultipartFile(fieldName, fileName string, file io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(fieldName, filepath.Base(fileName))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy file contents: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}
