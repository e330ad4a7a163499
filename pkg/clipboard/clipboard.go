// Package clipboard publishes a copied document in every format it was
// serialized to. On Linux/Wayland a detached owner process serves RTFD, RTF
// and plain text together, so a paste picks the richest format the target
// understands. Elsewhere only the plain text reaches the clipboard.
package clipboard

import (
	"rtfdclip/pkg/serializer"
)

// Plain text targets, preferred first.
var plainTypes = []string{"text/plain;charset=utf-8", "text/plain", "UTF8_STRING", "STRING"}

// Item is one clipboard write. RTFD and RTF are optional; Plain is always
// offered.
type Item struct {
	RTFD  []byte `json:"rtfd,omitempty"`
	RTF   []byte `json:"rtf,omitempty"`
	Plain string `json:"plain"`
}

// Formats maps every offered MIME type to its contents.
func (i *Item) Formats() map[string][]byte {
	formats := make(map[string][]byte, 7)
	if len(i.RTFD) > 0 {
		for _, mime := range serializer.FormatRTFD.MIMETypes() {
			formats[mime] = i.RTFD
		}
	}
	if len(i.RTF) > 0 {
		for _, mime := range serializer.FormatRTF.MIMETypes() {
			formats[mime] = i.RTF
		}
	}
	for _, mime := range plainTypes {
		formats[mime] = []byte(i.Plain)
	}
	return formats
}

// Kinds names the formats the item carries, richest first.
func (i *Item) Kinds() []string {
	var kinds []string
	if len(i.RTFD) > 0 {
		kinds = append(kinds, serializer.FormatRTFD.String())
	}
	if len(i.RTF) > 0 {
		kinds = append(kinds, serializer.FormatRTF.String())
	}
	return append(kinds, "txt")
}
