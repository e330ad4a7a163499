package richtext

import (
	"image/color"
	"sort"
)

// Attribute keys understood by the RTF writer. Any other key is carried
// along untouched.
const (
	AttrBold          = "bold"
	AttrItalic        = "italic"
	AttrUnderline     = "underline"
	AttrStrikethrough = "strikethrough"
	AttrFont          = "font"
	AttrSize          = "size"
	AttrColor         = "color"
	AttrLink          = "link"
)

// Attributes is the formatting attached to a text run.
type Attributes map[string]any

func (a Attributes) clone() Attributes {
	if len(a) == 0 {
		return nil
	}
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Bool returns the boolean value stored under key, false when absent.
func (a Attributes) Bool(key string) bool {
	v, _ := a[key].(bool)
	return v
}

// String returns the string value stored under key.
func (a Attributes) String(key string) string {
	v, _ := a[key].(string)
	return v
}

// Float returns a numeric value stored under key as float64.
func (a Attributes) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Color returns the color stored under AttrColor.
func (a Attributes) Color() (color.Color, bool) {
	c, ok := a[AttrColor].(color.Color)
	return c, ok
}

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Keys of DocumentAttributes, named after the host text system's document
// attribute dictionary.
const (
	DocTypeKey         = "DocumentType"
	DocTitleKey        = "Title"
	DocAuthorKey       = "Author"
	DocSubjectKey      = "Subject"
	DocKeywordsKey     = "Keywords"
	DocCommentKey      = "Comment"
	DocCopyrightKey    = "Copyright"
	DocDefaultFontKey  = "DefaultFont"
	DocDefaultSizeKey  = "DefaultFontSize"
	DocPaperWidthKey   = "PaperWidth"
	DocPaperHeightKey  = "PaperHeight"
	DocCharEncodingKey = "CharacterEncoding"
	DocAttachmentsKey  = "AttachmentCount"
)

// Values of DocTypeKey.
const (
	DocTypeRTF  = "NSRTF"
	DocTypeRTFD = "NSRTFD"
)

// DocumentAttributes is format-level metadata accompanying a payload.
type DocumentAttributes map[string]any

// Clone returns a shallow copy, nil for an empty record.
func (d DocumentAttributes) Clone() DocumentAttributes {
	if len(d) == 0 {
		return nil
	}
	c := make(DocumentAttributes, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

func (d DocumentAttributes) String(key string) string {
	v, _ := d[key].(string)
	return v
}

func (d DocumentAttributes) Float(key string) (float64, bool) {
	return Attributes(d).Float(key)
}
