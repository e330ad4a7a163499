package serializer

import (
	"fmt"
	"strings"

	"rtfdclip/pkg/richtext"
)

type Format int

const (
	FormatRTFD Format = iota
	FormatRTF
)

func (f Format) String() string {
	switch f {
	case FormatRTFD:
		return "rtfd"
	case FormatRTF:
		return "rtf"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// UTI is the uniform type identifier pasteboards use for the format.
func (f Format) UTI() string {
	if f == FormatRTFD {
		return "com.apple.flat-rtfd"
	}
	return "public.rtf"
}

// MIMETypes lists the clipboard targets offering the format, preferred first.
func (f Format) MIMETypes() []string {
	if f == FormatRTFD {
		return []string{"com.apple.flat-rtfd"}
	}
	return []string{"text/rtf", "application/rtf"}
}

// Ext is the file extension used when the payload is saved.
func (f Format) Ext() string {
	return "." + f.String()
}

// ParseFormat accepts "rtfd" or "rtf".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rtfd":
		return FormatRTFD, nil
	case "rtf":
		return FormatRTF, nil
	default:
		return 0, fmt.Errorf("unknown format %q (want rtfd or rtf)", s)
	}
}

// Payload is the result of one serialization. The caller owns it.
type Payload struct {
	Format     Format
	Data       []byte
	Attributes richtext.DocumentAttributes
}
