// Package ocr extracts plain text from invoice images.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// ErrNoText is returned when OCR finds no text in an image.
var ErrNoText = errors.New("no text recognized in image")

// Engine extracts best-effort plain text from raw image bytes.
type Engine interface {
	Text(ctx context.Context, image []byte) (string, error)
}

// Tesseract implements Engine with a per-call gosseract client.
type Tesseract struct {
	languages []string
}

// NewTesseract creates a Tesseract engine. With no languages the
// tesseract default (eng) is used.
func NewTesseract(languages ...string) *Tesseract {
	return &Tesseract{languages: languages}
}

// Text runs OCR on image and returns the trimmed result.
func (t *Tesseract) Text(ctx context.Context, image []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c := gosseract.NewClient()
	defer c.Close()

	if len(t.languages) > 0 {
		if err := c.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrNoText
	}
	return trimmed, nil
}
