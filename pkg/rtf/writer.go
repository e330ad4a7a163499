package rtf

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"
	"unicode/utf16"

	"rtfdclip/pkg/richtext"

	"golang.org/x/text/encoding/charmap"
)

// attachmentRef tells the writer how an attachment appears in the text.
type attachmentRef struct {
	name          string
	width, height int // pixels
}

// textWriter renders runs as one RTF document.
type textWriter struct {
	opts   Options
	attrs  richtext.DocumentAttributes
	fonts  []string
	colors []color.RGBA
	buf    bytes.Buffer
}

func newTextWriter(opts Options, attrs richtext.DocumentAttributes) *textWriter {
	opts = opts.withDefaults()
	if f := attrs.String(richtext.DocDefaultFontKey); f != "" {
		opts.DefaultFont = f
	}
	if s, ok := attrs.Float(richtext.DocDefaultSizeKey); ok && s > 0 {
		opts.DefaultFontSize = s
	}
	return &textWriter{opts: opts, attrs: attrs, fonts: []string{opts.DefaultFont}}
}

// write renders runs. refs holds one entry per attachment run in order; a
// nil refs means text-only output governed by the attachment policy.
func (w *textWriter) write(runs []richtext.Run, refs []attachmentRef) []byte {
	for _, r := range runs {
		tr, ok := r.(richtext.TextRun)
		if !ok {
			continue
		}
		a := tr.Attributes()
		if f := a.String(richtext.AttrFont); f != "" {
			w.fontIndex(f)
		}
		if c, ok := a.Color(); ok {
			w.colorIndex(c)
		}
	}

	w.header()

	next := 0
	for _, r := range runs {
		switch v := r.(type) {
		case richtext.TextRun:
			w.textRun(v)
		case richtext.AttachmentRun:
			if refs != nil {
				w.attachment(refs[next])
				next++
			} else if w.opts.AttachmentPolicy == richtext.PolicyPlaceholder {
				w.text(string(richtext.AttachmentCharacter))
			}
		}
	}
	w.buf.WriteString("}")
	return w.buf.Bytes()
}

func (w *textWriter) header() {
	b := &w.buf
	b.WriteString(`{\rtf1\ansi\ansicpg1252\cocoartf2639` + "\n")
	b.WriteString(`\cocoatextscaling0\cocoaplatform0{\fonttbl`)
	for i, f := range w.fonts {
		fmt.Fprintf(b, `\f%d\f%s\fcharset0 `, i, fontFamily(f))
		w.text(f)
		b.WriteString(";")
	}
	b.WriteString("}\n")
	b.WriteString(`{\colortbl;\red255\green255\blue255;`)
	for _, c := range w.colors {
		fmt.Fprintf(b, `\red%d\green%d\blue%d;`, c.R, c.G, c.B)
	}
	b.WriteString("}\n")

	w.info()

	if pw, ok := w.attrs.Float(richtext.DocPaperWidthKey); ok && pw > 0 {
		fmt.Fprintf(b, `\paperw%d`, twips(pw))
	}
	if ph, ok := w.attrs.Float(richtext.DocPaperHeightKey); ok && ph > 0 {
		fmt.Fprintf(b, `\paperh%d`, twips(ph))
	}
	b.WriteString(`\pard\tx560\tx1120\tx1680\tx2240\tx2800\tx3360\tx3920\tx4480\tx5040\tx5600\tx6160\tx6720\pardirnatural\partightenfactor0` + "\n\n")
	fmt.Fprintf(b, `\f0\fs%d \cf0 \uc0 `, halfPoints(w.opts.DefaultFontSize))
}

var infoFields = []struct{ key, word string }{
	{richtext.DocTitleKey, `\title`},
	{richtext.DocAuthorKey, `\author`},
	{richtext.DocSubjectKey, `\subject`},
	{richtext.DocKeywordsKey, `\keywords`},
	{richtext.DocCommentKey, `\doccomm`},
	{richtext.DocCopyrightKey, `\*\copyright`},
}

func (w *textWriter) info() {
	opened := false
	for _, f := range infoFields {
		v := w.attrs.String(f.key)
		if v == "" {
			continue
		}
		if !opened {
			w.buf.WriteString(`{\info`)
			opened = true
		}
		w.buf.WriteString("{" + f.word + " ")
		w.text(v)
		w.buf.WriteString("}")
	}
	if opened {
		w.buf.WriteString("}\n")
	}
}

func (w *textWriter) textRun(r richtext.TextRun) {
	a := r.Attributes()
	controls := w.controls(a)
	link := a.String(richtext.AttrLink)

	if link != "" {
		w.buf.WriteString(`{\field{\*\fldinst{HYPERLINK "`)
		w.text(strings.ReplaceAll(link, `"`, "%22"))
		w.buf.WriteString(`"}}{\fldrslt `)
	}
	if controls != "" {
		w.buf.WriteString("{" + controls + " ")
	}
	w.text(r.Text())
	if controls != "" {
		w.buf.WriteString("}")
	}
	if link != "" {
		w.buf.WriteString("}}")
	}
}

func (w *textWriter) controls(a richtext.Attributes) string {
	var c strings.Builder
	if a.Bool(richtext.AttrBold) {
		c.WriteString(`\b`)
	}
	if a.Bool(richtext.AttrItalic) {
		c.WriteString(`\i`)
	}
	if a.Bool(richtext.AttrUnderline) {
		c.WriteString(`\ul`)
	}
	if a.Bool(richtext.AttrStrikethrough) {
		c.WriteString(`\strike`)
	}
	if f := a.String(richtext.AttrFont); f != "" {
		if i := w.fontIndex(f); i != 0 {
			fmt.Fprintf(&c, `\f%d`, i)
		}
	}
	if s, ok := a.Float(richtext.AttrSize); ok && s > 0 {
		fmt.Fprintf(&c, `\fs%d`, halfPoints(s))
	}
	if col, ok := a.Color(); ok {
		fmt.Fprintf(&c, `\cf%d`, w.colorIndex(col))
	}
	return c.String()
}

// attachment writes a NeXTGraphic group. The name is escaped like body
// text so readers decoding the declared code page recover the entry name.
func (w *textWriter) attachment(ref attachmentRef) {
	w.buf.WriteString(`{{\NeXTGraphic `)
	w.text(ref.name)
	fmt.Fprintf(&w.buf, ` \width%d \height%d \appleattachmentpadding0 \appleembedtype0 \appleaqc`+"\n"+`}\'ac}`,
		ref.width*20, ref.height*20)
}

// text appends s with RTF escaping: specials are backslashed, Windows-1252
// characters become \'xx and everything else \uN per UTF-16 unit.
func (w *textWriter) text(s string) {
	b := &w.buf
	for i, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString("\\\n")
		case r == '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				continue
			}
			b.WriteString("\\\n")
		case r == '\t':
			b.WriteString(`\tab `)
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			// other control characters have no text representation
		default:
			if c, ok := charmap.Windows1252.EncodeRune(r); ok && c >= 0x80 {
				fmt.Fprintf(b, `\'%02x`, c)
				continue
			}
			for _, u := range utf16.Encode([]rune{r}) {
				fmt.Fprintf(b, `\u%d `, int16(u))
			}
		}
	}
}

func (w *textWriter) fontIndex(name string) int {
	for i, f := range w.fonts {
		if strings.EqualFold(f, name) {
			return i
		}
	}
	w.fonts = append(w.fonts, name)
	return len(w.fonts) - 1
}

// colorIndex returns the \cf index of c. Index 1 is the white entry every
// table starts with.
func (w *textWriter) colorIndex(c color.Color) int {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	for i, have := range w.colors {
		if have == rgba {
			return i + 2
		}
	}
	w.colors = append(w.colors, rgba)
	return len(w.colors) + 1
}

func fontFamily(name string) string {
	switch strings.ToLower(name) {
	case "helvetica", "helvetica neue", "arial":
		return "swiss"
	case "times", "times new roman", "georgia":
		return "roman"
	case "courier", "courier new", "menlo", "monaco":
		return "modern"
	default:
		return "nil"
	}
}

func halfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

func twips(pt float64) int {
	return int(math.Round(pt * 20))
}
