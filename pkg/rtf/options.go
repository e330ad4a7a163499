// Package rtf writes and reads RTF text and RTFD containers. It plays the
// role the host text system plays on platforms that have one: nothing
// outside this package deals with RTF control words or container bytes.
package rtf

import (
	"fmt"
	"strings"

	"rtfdclip/pkg/richtext"
)

// ImageEncoding is the file format image attachments are stored in.
type ImageEncoding string

const (
	EncodingTIFF ImageEncoding = "tiff"
	EncodingPNG  ImageEncoding = "png"
)

// ParseImageEncoding accepts "tiff" or "png"; empty means tiff.
func ParseImageEncoding(s string) (ImageEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tiff", "tif":
		return EncodingTIFF, nil
	case "png":
		return EncodingPNG, nil
	default:
		return "", fmt.Errorf("unknown image encoding %q (want tiff or png)", s)
	}
}

// Ext returns the file extension including the dot.
func (e ImageEncoding) Ext() string {
	if e == EncodingPNG {
		return ".png"
	}
	return ".tiff"
}

// Options configure the writer.
type Options struct {
	AttachmentPolicy richtext.AttachmentPolicy
	ImageEncoding    ImageEncoding
	DefaultFont      string
	DefaultFontSize  float64
}

func DefaultOptions() Options {
	return Options{
		AttachmentPolicy: richtext.PolicyPlaceholder,
		ImageEncoding:    EncodingTIFF,
		DefaultFont:      "Helvetica",
		DefaultFontSize:  12,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ImageEncoding == "" {
		o.ImageEncoding = d.ImageEncoding
	}
	if o.DefaultFont == "" {
		o.DefaultFont = d.DefaultFont
	}
	if o.DefaultFontSize <= 0 {
		o.DefaultFontSize = d.DefaultFontSize
	}
	return o
}
