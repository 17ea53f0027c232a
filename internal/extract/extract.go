package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/vytor/flashgenius/internal/models"
)

// ErrUnsupportedType is returned for anything other than plain text or PDF.
var ErrUnsupportedType = errors.New("unsupported file type")

// MediaType normalizes a Content-Type header to its bare media type,
// e.g. "text/plain; charset=utf-8" becomes "text/plain".
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// Supported reports whether mediaType can be extracted.
func Supported(mediaType string) bool {
	switch MediaType(mediaType) {
	case models.MimeTypeText, models.MimeTypePDF:
		return true
	}
	return false
}

// Text returns the trimmed text content of data.
func Text(data []byte, mediaType string) (string, error) {
	switch MediaType(mediaType) {
	case models.MimeTypeText:
		return plain(data), nil
	case models.MimeTypePDF:
		return pdfText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
}

func plain(data []byte) string {
	s := string(data)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}

func pdfText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return plain(b), nil
}
