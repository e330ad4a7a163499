package richtext

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Run is one unit of a document: a TextRun or an AttachmentRun.
type Run interface {
	Fragment

	// Len is the run length in UTF-16 code units.
	Len() int

	// Text is the run's plain text contribution.
	Text() string

	isRun()
}

// TextRun is immutable text with formatting attributes.
type TextRun struct {
	text  string
	attrs Attributes
	units int
}

// NewTextRun creates a run; attrs is copied.
func NewTextRun(text string, attrs Attributes) TextRun {
	return TextRun{text: text, attrs: attrs.clone(), units: utf16Len(text)}
}

func (r TextRun) Len() int     { return r.units }
func (r TextRun) Text() string { return r.text }
func (r TextRun) isRun()       {}

// Attributes returns a copy of the run's formatting.
func (r TextRun) Attributes() Attributes {
	return r.attrs.clone()
}

func (r TextRun) runs() []Run {
	return []Run{r}
}

// slice returns the part of r between UTF-16 offsets from and to. A cut
// through a surrogate pair yields U+FFFD for the orphaned half.
func (r TextRun) slice(from, to int) TextRun {
	if from == 0 && to == r.units {
		return r
	}
	u := utf16.Encode([]rune(r.text))
	text := string(utf16.Decode(u[from:to]))
	return TextRun{text: text, attrs: r.attrs, units: to - from}
}

// AttachmentRun wraps an Attachment so it can be appended like text.
type AttachmentRun struct {
	attachment Attachment
}

func (r AttachmentRun) Len() int { return 1 }

// Text is the attachment character.
func (r AttachmentRun) Text() string { return string(AttachmentCharacter) }

func (r AttachmentRun) isRun() {}

func (r AttachmentRun) Attachment() Attachment {
	return r.attachment
}

func (r AttachmentRun) runs() []Run {
	return []Run{r}
}

func utf16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// JoinText concatenates the text of runs, writing placeholder in place of
// each attachment.
func JoinText(runs []Run, placeholder string) string {
	var b strings.Builder
	for _, r := range runs {
		if _, ok := r.(AttachmentRun); ok {
			b.WriteString(placeholder)
			continue
		}
		b.WriteString(r.Text())
	}
	return b.String()
}
