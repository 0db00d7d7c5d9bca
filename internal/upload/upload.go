package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes is the largest image accepted from a product form.
const DefaultMaxBytes = 5 << 20

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("only image files are allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Storage keeps uploaded product images and returns the URL they are served at.
type Storage interface {
	Save(ctx context.Context, ext string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// Validate checks the size limit and sniffs the content type of f, then
// rewinds it. It returns the canonical extension for the detected type.
func Validate(f io.ReadSeeker, size, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if size > maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, maxBytes)
	}
	if size == 0 {
		return "", ErrEmptyFile
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedType, mtype.String())
	}
	return mtype.Extension(), nil
}
