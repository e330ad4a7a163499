package rtf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"
	"unicode"

	"rtfdclip/pkg/richtext"

	"golang.org/x/image/tiff"
)

// CharacterEncoding is reported in the attributes of every conversion.
const CharacterEncoding = "windows-1252"

// Converter turns runs into RTF or RTFD bytes.
type Converter struct {
	opts Options
}

func NewConverter(opts Options) *Converter {
	return &Converter{opts: opts.withDefaults()}
}

func (c *Converter) Options() Options {
	return c.opts
}

// RTF renders runs as text-only RTF. Attachments follow the configured
// policy and never contribute their bytes.
func (c *Converter) RTF(runs []richtext.Run, attrs richtext.DocumentAttributes) ([]byte, richtext.DocumentAttributes, error) {
	w := newTextWriter(c.opts, attrs)
	data := w.write(runs, nil)
	return data, c.resultAttributes(attrs, richtext.DocTypeRTF, 0), nil
}

// RTFD renders runs as a flat RTFD container. An attachment that holds
// neither an image nor a file, or whose image cannot be encoded, makes the
// whole conversion fail.
func (c *Converter) RTFD(runs []richtext.Run, attrs richtext.DocumentAttributes) ([]byte, richtext.DocumentAttributes, error) {
	container, err := c.Container(runs, attrs)
	if err != nil {
		return nil, nil, err
	}
	return container.Encode(), c.resultAttributes(attrs, richtext.DocTypeRTFD, len(container.Entries)-1), nil
}

// Container builds the RTFD container for runs without flattening it.
func (c *Converter) Container(runs []richtext.Run, attrs richtext.DocumentAttributes) (*Container, error) {
	names := newNamer()
	var refs []attachmentRef
	var files []Entry

	for i, r := range runs {
		ar, ok := r.(richtext.AttachmentRun)
		if !ok {
			continue
		}
		f, err := c.attachmentFile(ar.Attachment(), names)
		if err != nil {
			return nil, fmt.Errorf("attachment at run %d: %w", i, err)
		}
		refs = append(refs, attachmentRef{name: f.name, width: f.width, height: f.height})
		files = append(files, Entry{Name: f.name, Data: f.data})
	}
	if refs == nil {
		refs = []attachmentRef{}
	}

	text := newTextWriter(c.opts, attrs).write(runs, refs)
	entries := append([]Entry{{Name: TextEntryName, Data: text}}, files...)
	return &Container{Entries: entries}, nil
}

func (c *Converter) resultAttributes(in richtext.DocumentAttributes, docType string, attachments int) richtext.DocumentAttributes {
	out := in.Clone()
	if out == nil {
		out = richtext.DocumentAttributes{}
	}
	out[richtext.DocTypeKey] = docType
	out[richtext.DocCharEncodingKey] = CharacterEncoding
	if docType == richtext.DocTypeRTFD {
		out[richtext.DocAttachmentsKey] = attachments
	}
	return out
}

type attachmentFile struct {
	name          string
	data          []byte
	width, height int
}

func (c *Converter) attachmentFile(a richtext.Attachment, names *namer) (attachmentFile, error) {
	if fw, ok := a.File(); ok {
		if len(fw.Data) == 0 {
			return attachmentFile{}, fmt.Errorf("file wrapper %q is empty", fw.Name)
		}
		return attachmentFile{
			name:   names.claim(fw.Name, ""),
			data:   fw.Data,
			width:  fw.Width,
			height: fw.Height,
		}, nil
	}

	img := a.Image()
	if img == nil {
		return attachmentFile{}, fmt.Errorf("attachment has no image or file (keys %v)", a.Keys())
	}
	data, err := EncodeImage(img, c.opts.ImageEncoding)
	if err != nil {
		return attachmentFile{}, err
	}
	b := img.Bounds()
	return attachmentFile{
		name:   names.claim("", c.opts.ImageEncoding.Ext()),
		data:   data,
		width:  b.Dx(),
		height: b.Dy(),
	}, nil
}

// EncodeImage stores img in the given file format.
func EncodeImage(img image.Image, enc ImageEncoding) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch enc {
	case EncodingPNG:
		err = png.Encode(&buf, img)
	case EncodingTIFF, "":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return nil, fmt.Errorf("unsupported image encoding %q", enc)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc, err)
	}
	return buf.Bytes(), nil
}

// namer hands out unique entry names: "Attachment.tiff", "Attachment 1.tiff"
// and so on. TXT.rtf is never handed out.
type namer struct {
	used map[string]bool
}

func newNamer() *namer {
	return &namer{used: map[string]bool{strings.ToLower(TextEntryName): true}}
}

func (n *namer) claim(name, ext string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == "/" || checkName(name) != "" || strings.IndexFunc(name, unicode.IsControl) >= 0 {
		name = "Attachment" + ext
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	ext = filepath.Ext(name)
	candidate := name
	for i := 1; n.used[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s %d%s", stem, i, ext)
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}
