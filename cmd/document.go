package cmd

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"rtfdclip/pkg/config"
	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/pipeline"
	"rtfdclip/pkg/richtext"
	"rtfdclip/pkg/rtf"
	"rtfdclip/pkg/serializer"

	"github.com/spf13/cobra"
)

// documentFlags are the flags shared by every command that assembles a
// document from its arguments.
type documentFlags struct {
	attachments   string
	imageEncoding string
	maxDimension  int
	keepOriginal  bool
	rangeSpec     string

	bold      bool
	italic    bool
	underline bool
	strike    bool
	font      string
	size      float64
	color     string
	link      string

	title   string
	author  string
	subject string
}

func (f *documentFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.attachments, "attachments", "", "What text-only output does with attachments (placeholder, drop)")
	fs.StringVar(&f.imageEncoding, "image-encoding", "", "File format for embedded images (tiff, png)")
	fs.IntVar(&f.maxDimension, "max-dimension", 0, "Scale images down so neither side exceeds this many pixels (0 keeps the original size)")
	fs.BoolVar(&f.keepOriginal, "keep-original", false, "Embed image files byte for byte instead of re-encoding them")
	fs.StringVar(&f.rangeSpec, "range", "", "Only serialize LOCATION:LENGTH, counted in UTF-16 units")

	fs.BoolVar(&f.bold, "bold", false, "Bold text")
	fs.BoolVar(&f.italic, "italic", false, "Italic text")
	fs.BoolVar(&f.underline, "underline", false, "Underlined text")
	fs.BoolVar(&f.strike, "strikethrough", false, "Struck-through text")
	fs.StringVar(&f.font, "font", "", "Font family for the text")
	fs.Float64Var(&f.size, "size", 0, "Font size in points")
	fs.StringVar(&f.color, "color", "", "Text color as #rrggbb")
	fs.StringVar(&f.link, "link", "", "Turn the text into a link to this URL")

	fs.StringVar(&f.title, "title", "", "Document title")
	fs.StringVar(&f.author, "author", "", "Document author")
	fs.StringVar(&f.subject, "subject", "", "Document subject")
}

// options merges the attachment and encoding flags into the configured
// writer options.
func (f *documentFlags) options(cfg *config.Config) (rtf.Options, error) {
	opts, err := cfg.Options()
	if err != nil {
		return rtf.Options{}, err
	}
	if f.attachments != "" {
		p, err := richtext.ParsePolicy(f.attachments)
		if err != nil {
			return rtf.Options{}, errors.ValidationError(err.Error())
		}
		opts.AttachmentPolicy = p
	}
	if f.imageEncoding != "" {
		enc, err := rtf.ParseImageEncoding(f.imageEncoding)
		if err != nil {
			return rtf.Options{}, errors.ValidationError(err.Error())
		}
		opts.ImageEncoding = enc
	}
	return opts, nil
}

func (f *documentFlags) attributes() (richtext.Attributes, error) {
	attrs := richtext.Attributes{}
	if f.bold {
		attrs[richtext.AttrBold] = true
	}
	if f.italic {
		attrs[richtext.AttrItalic] = true
	}
	if f.underline {
		attrs[richtext.AttrUnderline] = true
	}
	if f.strike {
		attrs[richtext.AttrStrikethrough] = true
	}
	if f.font != "" {
		attrs[richtext.AttrFont] = f.font
	}
	if f.size < 0 {
		return nil, errors.ValidationError("--size must not be negative")
	}
	if f.size > 0 {
		attrs[richtext.AttrSize] = f.size
	}
	if f.color != "" {
		c, err := parseHexColor(f.color)
		if err != nil {
			return nil, err
		}
		attrs[richtext.AttrColor] = c
	}
	if f.link != "" {
		attrs[richtext.AttrLink] = f.link
	}
	return attrs, nil
}

func (f *documentFlags) documentAttributes() richtext.DocumentAttributes {
	attrs := richtext.DocumentAttributes{}
	if f.title != "" {
		attrs[richtext.DocTitleKey] = f.title
	}
	if f.author != "" {
		attrs[richtext.DocAuthorKey] = f.author
	}
	if f.subject != "" {
		attrs[richtext.DocSubjectKey] = f.subject
	}
	return attrs.Clone()
}

// rng parses --range; nil means the whole document.
func (f *documentFlags) rng() (*richtext.Range, error) {
	if f.rangeSpec == "" {
		return nil, nil
	}
	r, err := parseRange(f.rangeSpec)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// build assembles the document from args, or from stdin when there are
// none.
func (f *documentFlags) build(cmd *cobra.Command, args []string) (*richtext.Document, error) {
	attrs, err := f.attributes()
	if err != nil {
		return nil, err
	}

	var segs []pipeline.Segment
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.NewWithError(errors.ExitCodeFileOperation, "failed to read standard input", err)
		}
		segs = []pipeline.Segment{{Text: string(data), Attributes: attrs}}
	} else {
		segs = pipeline.ParseSegments(args, attrs)
	}

	doc, err := pipeline.BuildDocument(segs, pipeline.BuildOptions{
		KeepOriginal: f.keepOriginal,
		MaxDimension: f.maxDimension,
	})
	if err != nil {
		return nil, err
	}
	if doc.State() == richtext.StateEmpty {
		return nil, errors.NewWithSuggestion(errors.ExitCodeValidation, "nothing to copy: the document is empty",
			"Pass text and @image arguments, or pipe text on standard input")
	}
	return doc, nil
}

func newSerializer(opts rtf.Options) *serializer.Serializer {
	return serializer.New(rtf.NewConverter(opts), serializer.WithAttachmentPolicy(opts.AttachmentPolicy))
}

// parseRange reads LOCATION:LENGTH.
func parseRange(spec string) (richtext.Range, error) {
	loc, length, ok := strings.Cut(spec, ":")
	if !ok {
		return richtext.Range{}, errors.NewWithSuggestion(errors.ExitCodeValidation,
			fmt.Sprintf("invalid range %q", spec), "Use LOCATION:LENGTH, for example --range 6:5")
	}
	l, err1 := strconv.Atoi(strings.TrimSpace(loc))
	n, err2 := strconv.Atoi(strings.TrimSpace(length))
	if err1 != nil || err2 != nil || l < 0 || n < 0 {
		return richtext.Range{}, errors.NewWithSuggestion(errors.ExitCodeValidation,
			fmt.Sprintf("invalid range %q", spec), "LOCATION and LENGTH must be non-negative integers")
	}
	return richtext.NewRange(l, n), nil
}

func parseHexColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if len(hex) != 6 || err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("invalid color %q, want #rrggbb", s))
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// attachmentsIn counts the attachments inside rng, or the whole document
// when rng is nil.
func attachmentsIn(doc *richtext.Document, rng *richtext.Range) int {
	if rng == nil {
		return doc.AttachmentCount()
	}
	runs, err := doc.Slice(*rng)
	if err != nil {
		return 0
	}
	n := 0
	for _, r := range runs {
		if _, ok := r.(richtext.AttachmentRun); ok {
			n++
		}
	}
	return n
}

func lengthOf(doc *richtext.Document, rng *richtext.Range) int {
	if rng == nil {
		return doc.Len()
	}
	return rng.Length()
}
