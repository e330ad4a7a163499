package richtext

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"sort"
)

// Property keys of an Attachment.
const (
	PropImage       = "image"
	PropFileWrapper = "fileWrapper"
	PropContents    = "contents"
)

// AttachmentCharacter stands in for an attachment in the plain text of a
// document. It is U+FFFC OBJECT REPLACEMENT CHARACTER.
const AttachmentCharacter = '\ufffc'

// FileWrapper is an already-encoded file carried by an attachment.
type FileWrapper struct {
	Name string
	Data []byte

	// Pixel size, zero when the data is not a decodable image.
	Width  int
	Height int
}

// WrapFile builds a FileWrapper for name and records the pixel size of data
// when it is an image the standard decoders understand.
func WrapFile(name string, data []byte) FileWrapper {
	fw := FileWrapper{Name: filepath.Base(name), Data: data}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		fw.Width, fw.Height = cfg.Width, cfg.Height
	}
	return fw
}

// Attachment is an embedded object plus the properties the text system keys
// it by. The zero value carries nothing and cannot be serialized.
type Attachment struct {
	props map[string]any
}

// Wrap turns one already-loaded object into an attachment. Images are stored
// under PropImage, file wrappers under PropFileWrapper and anything else
// under PropContents. Wrap never fails and performs no validation.
func Wrap(obj any) Attachment {
	switch v := obj.(type) {
	case image.Image:
		return NewAttachment(map[string]any{PropImage: v})
	case FileWrapper:
		return NewAttachment(map[string]any{PropFileWrapper: v})
	case *FileWrapper:
		if v == nil {
			return Attachment{}
		}
		return NewAttachment(map[string]any{PropFileWrapper: *v})
	default:
		return NewAttachment(map[string]any{PropContents: v})
	}
}

// NewAttachment builds an attachment from raw key/value properties. The map
// is copied.
func NewAttachment(props map[string]any) Attachment {
	a := Attachment{props: make(map[string]any, len(props))}
	for k, v := range props {
		a.props[k] = v
	}
	return a
}

// Value returns the property stored under key.
func (a Attachment) Value(key string) (any, bool) {
	v, ok := a.props[key]
	return v, ok
}

// Image returns the image property, nil when the attachment holds none.
func (a Attachment) Image() image.Image {
	img, _ := a.props[PropImage].(image.Image)
	return img
}

// File returns the file wrapper property.
func (a Attachment) File() (FileWrapper, bool) {
	fw, ok := a.props[PropFileWrapper].(FileWrapper)
	return fw, ok
}

// Keys returns the property names in sorted order.
func (a Attachment) Keys() []string {
	keys := make([]string, 0, len(a.props))
	for k := range a.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsZero reports whether the attachment has no properties at all.
func (a Attachment) IsZero() bool {
	return len(a.props) == 0
}

// AsRun converts the attachment into a run occupying one unit.
func (a Attachment) AsRun() AttachmentRun {
	return AttachmentRun{attachment: a}
}
