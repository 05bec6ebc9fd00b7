package posts

import (
	"bytes"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"mime"
	"path/filepath"
	"strings"

	"github.com/rivo/uniseg"
	_ "golang.org/x/image/webp" // register decoder

	"Picfeed/internal/core/apperr"
)

const (
	// MaxImageBytes is the largest accepted upload (5 MiB)
	MaxImageBytes = 5 << 20

	// MaxCaptionLength is measured in user-perceived characters (grapheme clusters)
	MaxCaptionLength = 2200
)

// supportedTypes maps accepted content types to the format name image.DecodeConfig reports.
var supportedTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
}

var supportedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// ValidatedImage is an upload that passed every media check.
type ValidatedImage struct {
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// NormalizeContentType lowercases the media type, drops parameters and maps image/jpg to image/jpeg.
func NormalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	if mediaType == "image/jpg" {
		return "image/jpeg"
	}
	return mediaType
}

// ValidateImage checks presence, size, declared type, filename extension and the
// decoded header, in that order.
func ValidateImage(data []byte, contentType, filename string) (*ValidatedImage, error) {
	if len(data) == 0 {
		return nil, newValidationError(apperr.ErrInvalidMedia, "image", ReasonImageRequired, "image is required")
	}
	if len(data) > MaxImageBytes {
		return nil, newValidationError(apperr.ErrPayloadTooLarge, "image", ReasonImageTooLarge, "image exceeds 5 MiB")
	}

	normalized := NormalizeContentType(contentType)
	format, ok := supportedTypes[normalized]
	if !ok {
		return nil, newValidationError(apperr.ErrInvalidMedia, "image", ReasonUnsupportedType,
			"unsupported content type: "+contentType)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !supportedExtensions[ext] {
		return nil, newValidationError(apperr.ErrInvalidMedia, "image", ReasonUnsupportedExtension,
			"unsupported file extension: "+filename)
	}

	cfg, decoded, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, newValidationError(apperr.ErrInvalidMedia, "image", ReasonUndecodable,
			"image could not be decoded")
	}
	if decoded != format {
		return nil, newValidationError(apperr.ErrInvalidMedia, "image", ReasonFormatMismatch,
			"image is "+decoded+" but declared as "+normalized)
	}

	return &ValidatedImage{
		ContentType: normalized,
		Extension:   ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// NormalizeCaption trims the caption; a blank caption becomes nil.
func NormalizeCaption(caption *string) *string {
	if caption == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*caption)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// ValidateCaption enforces the caption length limit.
func ValidateCaption(caption *string) error {
	if caption == nil {
		return nil
	}
	if uniseg.GraphemeClusterCount(*caption) > MaxCaptionLength {
		return newValidationError(apperr.ErrInvalidInput, "caption", ReasonCaptionTooLong,
			"caption exceeds 2200 characters")
	}
	return nil
}
