package rtf

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf16"

	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/richtext"

	"golang.org/x/text/encoding/charmap"
)

// ReadRTFD decodes a flat RTFD container back into a document.
func ReadRTFD(data []byte) (*richtext.Document, error) {
	c, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Read(c.Text(), c.Files())
}

// Read parses RTF text into a document. NeXTGraphic attachments are looked
// up in files; one that is missing there still occupies its unit, as an
// attachment holding only its name. Only the character formatting this
// package writes is recovered; other control words are ignored.
func Read(text []byte, files map[string][]byte) (*richtext.Document, error) {
	if !bytes.HasPrefix(text, []byte(`{\rtf`)) {
		return nil, errors.MalformedError(0, "not RTF")
	}
	p := &parser{src: text, files: files, doc: richtext.FromText("")}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type groupState struct {
	bold, italic, underline, strike bool
	size                            int
	skip                            bool
	graphic                         *strings.Builder
	uc                              int
}

func (g groupState) attributes() richtext.Attributes {
	a := richtext.Attributes{}
	if g.bold {
		a[richtext.AttrBold] = true
	}
	if g.italic {
		a[richtext.AttrItalic] = true
	}
	if g.underline {
		a[richtext.AttrUnderline] = true
	}
	if g.strike {
		a[richtext.AttrStrikethrough] = true
	}
	if g.size > 0 {
		a[richtext.AttrSize] = float64(g.size) / 2
	}
	return a
}

type parser struct {
	src   []byte
	pos   int
	files map[string][]byte
	doc   *richtext.Document

	stack   []groupState
	cur     groupState
	pending strings.Builder
	pendAt  richtext.Attributes
	surr    uint16
	skipN   int

	// swallow drops the character that follows an attachment group.
	swallow bool
	// defaultSize is the \fs in effect outside any run group.
	defaultSize int
	err         error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

var skipDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "expandedcolortbl": true, "info": true,
	"stylesheet": true, "pict": true, "header": true, "footer": true,
	"listtable": true, "listoverridetable": true,
}

func (p *parser) parse() error {
	p.cur.uc = 1
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '{':
			p.pos++
			p.stack = append(p.stack, p.cur)
			p.cur.graphic = nil
		case '}':
			p.pos++
			if len(p.stack) == 0 {
				return errors.MalformedError(p.pos-1, "unbalanced group")
			}
			if p.cur.graphic != nil {
				if err := p.closeGraphic(); err != nil {
					return err
				}
			}
			p.cur = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			if len(p.stack) == 0 {
				p.fail(p.flush())
				if rest := bytes.TrimSpace(p.src[p.pos:]); len(rest) > 0 && !bytes.Equal(rest, []byte{0}) {
					p.fail(errors.MalformedError(p.pos, "data after document"))
				}
				return p.err
			}
		case '\\':
			if err := p.control(); err != nil {
				return err
			}
		case '\r', '\n':
			p.pos++
		default:
			p.pos++
			p.emit(charmap.Windows1252.DecodeByte(c))
		}
	}
	return errors.MalformedError(p.pos, "unterminated document")
}

func (p *parser) control() error {
	start := p.pos
	p.pos++
	if p.pos >= len(p.src) {
		return errors.MalformedError(start, "dangling backslash")
	}
	c := p.src[p.pos]
	if !isLetter(c) {
		p.pos++
		switch c {
		case '\\', '{', '}':
			p.emit(rune(c))
		case '\n', '\r':
			p.emit('\n')
		case '~':
			p.emit(' ')
		case '_':
			p.emit('\u2011')
		case '*':
			p.cur.skip = true
		case '\'':
			if p.pos+2 > len(p.src) {
				return errors.MalformedError(start, "short hex escape")
			}
			v, err := strconv.ParseUint(string(p.src[p.pos:p.pos+2]), 16, 8)
			if err != nil {
				return errors.MalformedError(start, "bad hex escape")
			}
			p.pos += 2
			p.emit(charmap.Windows1252.DecodeByte(byte(v)))
		}
		return nil
	}

	wordStart := p.pos
	for p.pos < len(p.src) && isLetter(p.src[p.pos]) {
		p.pos++
	}
	word := string(p.src[wordStart:p.pos])
	param, hasParam := 0, false
	numStart := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || isDigit(p.src[p.pos])) {
		p.pos++
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		n, err := strconv.Atoi(string(p.src[numStart:p.pos]))
		if err != nil {
			return errors.MalformedError(numStart, "bad control word parameter")
		}
		param, hasParam = n, true
	}
	if p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	p.word(word, param, hasParam)
	return nil
}

func (p *parser) word(word string, param int, hasParam bool) {
	on := !hasParam || param != 0
	if skipDestinations[word] {
		p.cur.skip = true
		return
	}
	switch word {
	case "par", "line":
		p.emit('\n')
	case "tab":
		p.emit('\t')
	case "b":
		p.setFormat(func(g *groupState) { g.bold = on })
	case "i":
		p.setFormat(func(g *groupState) { g.italic = on })
	case "ul":
		p.setFormat(func(g *groupState) { g.underline = on })
	case "ulnone":
		p.setFormat(func(g *groupState) { g.underline = false })
	case "strike":
		p.setFormat(func(g *groupState) { g.strike = on })
	case "fs":
		if len(p.stack) <= 1 {
			p.defaultSize = param
			return
		}
		p.setFormat(func(g *groupState) {
			if param != p.defaultSize {
				g.size = param
			} else {
				g.size = 0
			}
		})
	case "plain":
		p.setFormat(func(g *groupState) {
			g.bold, g.italic, g.underline, g.strike, g.size = false, false, false, false, 0
		})
	case "uc":
		p.cur.uc = param
	case "u":
		u := uint16(int16(param))
		p.emitUnit(u)
		p.skipN = p.cur.uc
	case "NeXTGraphic":
		p.cur.graphic = &strings.Builder{}
	}
}

func (p *parser) setFormat(fn func(*groupState)) {
	next := p.cur
	fn(&next)
	p.cur = next
}

func (p *parser) emitUnit(u uint16) {
	switch {
	case utf16.IsSurrogate(rune(u)) && u < 0xdc00:
		p.surr = u
	case utf16.IsSurrogate(rune(u)) && p.surr != 0:
		r := utf16.DecodeRune(rune(p.surr), rune(u))
		p.surr = 0
		p.emitRune(r)
	default:
		p.surr = 0
		p.emitRune(rune(u))
	}
}

// emit handles a character from the source text, honouring \uc skips.
func (p *parser) emit(r rune) {
	if p.skipN > 0 {
		p.skipN--
		return
	}
	p.emitRune(r)
}

func (p *parser) emitRune(r rune) {
	p.skipN = 0
	if p.cur.skip {
		return
	}
	if p.cur.graphic != nil {
		p.cur.graphic.WriteRune(r)
		return
	}
	if p.swallow {
		p.swallow = false
		if r == '\u00ac' || r == richtext.AttachmentCharacter {
			return
		}
	}
	if r == richtext.AttachmentCharacter {
		p.fail(p.flush())
		placeholder := richtext.NewAttachment(map[string]any{richtext.PropContents: ""})
		p.fail(p.doc.Append(placeholder.AsRun()))
		return
	}
	attrs := p.cur.attributes()
	if p.pending.Len() > 0 && !sameAttributes(attrs, p.pendAt) {
		p.fail(p.flush())
	}
	p.pendAt = attrs
	p.pending.WriteRune(r)
}

// closeGraphic turns a finished NeXTGraphic group into an attachment run.
func (p *parser) closeGraphic() error {
	name := strings.TrimSpace(p.cur.graphic.String())
	if err := p.flush(); err != nil {
		return err
	}
	var a richtext.Attachment
	if data, ok := p.files[name]; ok {
		a = richtext.Wrap(richtext.WrapFile(name, data))
	} else {
		a = richtext.NewAttachment(map[string]any{richtext.PropContents: name})
	}
	p.swallow = true
	return p.doc.Append(a.AsRun())
}

func (p *parser) flush() error {
	if p.pending.Len() == 0 {
		return nil
	}
	run := richtext.NewTextRun(p.pending.String(), p.pendAt)
	p.pending.Reset()
	return p.doc.Append(run)
}

func sameAttributes(a, b richtext.Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
