// Package pipeline is the copy action: it assembles a document from
// ordered input segments and turns it into a clipboard item, falling back
// to poorer formats when a richer one cannot be produced.
package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strings"

	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/logger"
	"rtfdclip/pkg/richtext"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Segment is one piece of input: either text or the path of an image to
// embed at that position.
type Segment struct {
	Text       string
	ImagePath  string
	Attributes richtext.Attributes
}

func (s Segment) IsImage() bool {
	return s.ImagePath != ""
}

// ParseSegments turns command line arguments into segments. An argument
// starting with "@" names an image file; "@@" escapes a literal "@".
func ParseSegments(args []string, attrs richtext.Attributes) []Segment {
	segs := make([]Segment, 0, len(args))
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "@@"):
			segs = append(segs, Segment{Text: arg[1:], Attributes: attrs})
		case strings.HasPrefix(arg, "@") && len(arg) > 1:
			segs = append(segs, Segment{ImagePath: arg[1:]})
		default:
			segs = append(segs, Segment{Text: arg, Attributes: attrs})
		}
	}
	return segs
}

// Loader reads the bytes of an image file.
type Loader func(path string) ([]byte, error)

type BuildOptions struct {
	// Loader defaults to os.ReadFile.
	Loader Loader
	// KeepOriginal embeds image files byte for byte instead of decoding
	// them and letting the converter re-encode them.
	KeepOriginal bool
	// MaxDimension scales decoded images down so neither side exceeds it.
	// Zero disables scaling.
	MaxDimension int
}

// BuildDocument appends segments in order. Loading or decoding problems are
// reported with the offending path; an append failure is fatal.
func BuildDocument(segs []Segment, opts BuildOptions) (*richtext.Document, error) {
	load := opts.Loader
	if load == nil {
		load = os.ReadFile
	}

	doc := richtext.FromText("")
	for i, seg := range segs {
		var frag richtext.Fragment
		if seg.IsImage() {
			data, err := load(seg.ImagePath)
			if err != nil {
				return nil, errors.NewWithError(errors.ExitCodeFileOperation, fmt.Sprintf("failed to load image %s", seg.ImagePath), err)
			}
			frag = attachmentFor(seg.ImagePath, data, opts).AsRun()
		} else {
			if seg.Text == "" {
				continue
			}
			frag = richtext.NewTextRun(seg.Text, seg.Attributes)
		}

		if err := doc.Append(frag); err != nil {
			logger.Error().Err(err).Int("segment", i).Msg("Append failed, aborting copy")
			return nil, err
		}
	}

	logger.Debug().Int("segments", len(segs)).Int("length", doc.Len()).Int("attachments", doc.AttachmentCount()).Msg("Built document")
	return doc, nil
}

// attachmentFor decodes data when possible so the converter stores it in
// the configured encoding. Data no decoder understands is embedded as is.
func attachmentFor(path string, data []byte, opts BuildOptions) richtext.Attachment {
	if opts.KeepOriginal {
		return richtext.Wrap(richtext.WrapFile(path, data))
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Debug().Str("path", path).Err(err).Msg("Not a decodable image, embedding file as is")
		return richtext.Wrap(richtext.WrapFile(path, data))
	}
	logger.Debug().Str("path", path).Str("format", format).Msg("Decoded image")
	return richtext.Wrap(fit(img, opts.MaxDimension))
}

// fit scales img down to at most limit pixels per side, keeping its aspect.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if limit <= 0 || (w <= limit && h <= limit) {
		return img
	}
	if w >= h {
		h = h * limit / w
		w = limit
	} else {
		w = w * limit / h
		h = limit
	}
	w, h = max(w, 1), max(h, 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
