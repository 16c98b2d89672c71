package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Accepted document formats.
var SupportedExtensions = []string{".pdf", ".txt", ".md", ".json"}

var supportedMIMETypes = map[string]bool{
	"application/pdf":  true,
	"text/plain":       true,
	"text/markdown":    true,
	"application/json": true,
}

const (
	// MaxFileSize caps a single file at 20 MB.
	MaxFileSize = 20 << 20
	// MaxFilesPerUpload caps one submission batch.
	MaxFilesPerUpload = 10
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file exceeds maximum size")
	ErrEmptyFile         = errors.New("file is empty")
	ErrTooManyFiles      = errors.New("too many files in one upload")
)

// ValidateFormat checks the file extension and, when a MIME type is
// known, the MIME type too.
func ValidateFormat(name, mimeType string) error {
	ext := strings.ToLower(filepath.Ext(name))
	ok := false
	for _, allowed := range SupportedExtensions {
		if ext == allowed {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions, ", "))
	}
	if mimeType != "" && !supportedMIMETypes[mimeType] {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
	return nil
}

// ValidateSize checks the file size bounds.
func ValidateSize(size int64) error {
	if size == 0 {
		return ErrEmptyFile
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: %s (max %s)", ErrFileTooLarge, FormatFileSize(size), FormatFileSize(MaxFileSize))
	}
	return nil
}

// Validate checks format and size together.
func Validate(name string, size int64) error {
	if err := ValidateFormat(name, ""); err != nil {
		return err
	}
	return ValidateSize(size)
}

// ValidateBatch checks the batch size limit.
func ValidateBatch(count int) error {
	if count > MaxFilesPerUpload {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyFiles, count, MaxFilesPerUpload)
	}
	return nil
}

// FormatFileSize renders a byte count in a human-readable unit.
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(bytes)/(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
