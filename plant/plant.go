/*
Package plant defines the plant record shared by the client, the server and
the store, along with the validation both ends apply to a submission.
*/
package plant

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxAuthorLength is the maximum number of characters in an author name
const MaxAuthorLength = 255

// Plant is one submitted drawing
type Plant struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	ImageData string    `json:"imageData"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidationError reports a submission the user can correct. It never
// involves the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plant: invalid %s: %s", e.Field, e.Reason)
}

// NormalizeAuthor returns the author name as it is stored
func NormalizeAuthor(author string) string {
	return strings.TrimSpace(author)
}

// ValidateAuthor checks the author name after trimming
func ValidateAuthor(author string) error {
	author = NormalizeAuthor(author)
	switch n := utf8.RuneCountInString(author); {
	case n == 0:
		return &ValidationError{Field: "author", Reason: "must not be empty"}
	case n > MaxAuthorLength:
		return &ValidationError{Field: "author", Reason: fmt.Sprintf("longer than %d characters", MaxAuthorLength)}
	}
	return nil
}

// ValidateImageData checks that s is base64 text of a PNG image
func ValidateImageData(s string) error {
	if s == "" {
		return &ValidationError{Field: "imageData", Reason: "must not be empty"}
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return &ValidationError{Field: "imageData", Reason: "not valid base64"}
	}
	if _, err := png.DecodeConfig(bytes.NewReader(b)); err != nil {
		return &ValidationError{Field: "imageData", Reason: "not a PNG image"}
	}
	return nil
}

// Validate checks both fields of a submission
func (p Plant) Validate() error {
	if err := ValidateAuthor(p.Author); err != nil {
		return err
	}
	return ValidateImageData(p.ImageData)
}

// Image returns the raw PNG bytes of the plant
func (p Plant) Image() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.ImageData)
}

// Decode returns the plant image ready for display
func (p Plant) Decode() (image.Image, error) {
	b, err := p.Image()
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(b))
}
