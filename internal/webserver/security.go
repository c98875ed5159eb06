package webserver

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxFormSize limits non-file form data to 10MB
	MaxFormSize = 10 * 1024 * 1024
	// MaxConfigBodySize limits the slice configuration JSON body to 1MB
	MaxConfigBodySize = 1024 * 1024
)

// AllowedMeshExtensions defines the accepted mesh formats, keyed without
// the leading dot and lowercased.
var AllowedMeshExtensions = map[string]bool{
	"stl": true,
	"obj": true,
}

// UploadError reports an upload rejected before decoding starts. It always
// maps to a client error.
type UploadError struct {
	Reason string
}

func (e *UploadError) Error() string {
	return e.Reason
}

// ValidateMeshUpload validates an uploaded mesh file for security and
// returns its normalized extension.
func ValidateMeshUpload(header *multipart.FileHeader, maxSize int64) (string, error) {
	if strings.TrimSpace(header.Filename) == "" {
		return "", &UploadError{Reason: "filename cannot be empty"}
	}

	// Check for path traversal in filename
	if strings.Contains(header.Filename, "..") || strings.Contains(header.Filename, "/") || strings.Contains(header.Filename, "\\") {
		return "", &UploadError{Reason: "invalid filename: contains path traversal characters"}
	}

	if header.Size == 0 {
		return "", &UploadError{Reason: "uploaded file is empty"}
	}

	if header.Size > maxSize {
		return "", &UploadError{Reason: fmt.Sprintf("file too large: %d bytes (max %d)", header.Size, maxSize)}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if !AllowedMeshExtensions[ext] {
		return "", &UploadError{Reason: fmt.Sprintf("invalid file type %q (allowed: stl, obj)", ext)}
	}

	return ext, nil
}
