package utils

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadedFile is a multipart file read fully into memory.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadUploadedFile reads the uploaded file into memory, rejecting anything over maxBytes.
func ReadUploadedFile(fileHeader *multipart.FileHeader, maxBytes int64) (*UploadedFile, error) {
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return nil, fmt.Errorf("file %s is larger than %d bytes", fileHeader.Filename, maxBytes)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(buf.Bytes())
	}

	return &UploadedFile{
		Name:        fileHeader.Filename,
		ContentType: contentType,
		Data:        buf.Bytes(),
	}, nil
}
