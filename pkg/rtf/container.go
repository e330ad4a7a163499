package rtf

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"rtfdclip/pkg/errors"
)

// TextEntryName is the container entry holding the RTF text.
const TextEntryName = "TXT.rtf"

// Flat container layout, all integers little-endian uint32:
//
//	"rtfd" version count
//	count x (nameLen name)
//	count x (dataLen data)
//
// TXT.rtf is always the first entry written.
const (
	containerMagic   = "rtfd"
	containerVersion = 1
	headerSize       = 12
	maxEntries       = 1 << 12
	maxNameLen       = 255
)

var le = binary.LittleEndian

// Entry is one file of an RTFD container.
type Entry struct {
	Name string
	Data []byte
}

// Container is an RTFD document: the RTF text plus the files its
// attachments reference.
type Container struct {
	Entries []Entry
}

// Text returns the RTF text entry, nil when missing.
func (c *Container) Text() []byte {
	if e, ok := c.Lookup(TextEntryName); ok {
		return e.Data
	}
	return nil
}

// Lookup finds an entry by name.
func (c *Container) Lookup(name string) (Entry, bool) {
	for _, e := range c.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Files returns the attachment entries keyed by name.
func (c *Container) Files() map[string][]byte {
	files := make(map[string][]byte, len(c.Entries))
	for _, e := range c.Entries {
		if e.Name != TextEntryName {
			files[e.Name] = e.Data
		}
	}
	return files
}

// Encode flattens c into one byte slice.
func (c *Container) Encode() []byte {
	size := headerSize
	for _, e := range c.Entries {
		size += 8 + len(e.Name) + len(e.Data)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, containerMagic...)
	buf = le.AppendUint32(buf, containerVersion)
	buf = le.AppendUint32(buf, uint32(len(c.Entries)))
	for _, e := range c.Entries {
		buf = le.AppendUint32(buf, uint32(len(e.Name)))
		buf = append(buf, e.Name...)
	}
	for _, e := range c.Entries {
		buf = le.AppendUint32(buf, uint32(len(e.Data)))
		buf = append(buf, e.Data...)
	}
	return buf
}

// Decode parses a flat container. Truncated, oversized or otherwise
// ill-formed input yields an error matching errors.ErrMalformed that names
// the offending offset; entry data aliases data.
func Decode(data []byte) (*Container, error) {
	d := decoder{data: data}
	if len(data) < headerSize {
		return nil, errors.MalformedError(0, "short header")
	}
	if string(data[:4]) != containerMagic {
		return nil, errors.MalformedError(0, "bad magic")
	}
	d.pos = 4
	version, _ := d.uint32()
	if version != containerVersion {
		return nil, errors.MalformedError(4, "unsupported version")
	}
	count, _ := d.uint32()
	if count == 0 || count > maxEntries {
		return nil, errors.MalformedError(8, "bad entry count")
	}
	if int(count)*8 > len(data)-d.pos {
		return nil, errors.MalformedError(8, "entry count exceeds input")
	}

	c := &Container{Entries: make([]Entry, count)}
	seen := make(map[string]bool, count)
	for i := range c.Entries {
		off := d.pos
		name, err := d.chunk(maxNameLen)
		if err != nil {
			return nil, err
		}
		if reason := checkName(string(name)); reason != "" {
			return nil, errors.MalformedError(off, reason)
		}
		if seen[string(name)] {
			return nil, errors.MalformedError(off, "duplicate entry "+string(name))
		}
		seen[string(name)] = true
		c.Entries[i].Name = string(name)
	}
	for i := range c.Entries {
		body, err := d.chunk(-1)
		if err != nil {
			return nil, err
		}
		c.Entries[i].Data = body
	}
	if d.pos != len(data) {
		return nil, errors.MalformedError(d.pos, "trailing data")
	}

	text := c.Text()
	if text == nil {
		return nil, errors.MalformedError(headerSize, "missing "+TextEntryName)
	}
	if !bytes.HasPrefix(text, []byte(`{\rtf`)) {
		return nil, errors.MalformedError(headerSize, TextEntryName+" is not RTF")
	}
	return c, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) uint32() (uint32, error) {
	if len(d.data)-d.pos < 4 {
		return 0, errors.MalformedError(d.pos, "truncated length")
	}
	v := le.Uint32(d.data[d.pos:])
	d.pos += 4
	return v, nil
}

// chunk reads a length-prefixed byte string no longer than limit (-1 for
// no limit beyond the input itself).
func (d *decoder) chunk(limit int) ([]byte, error) {
	off := d.pos
	n, err := d.uint32()
	if err != nil {
		return nil, err
	}
	if limit >= 0 && int(n) > limit {
		return nil, errors.MalformedError(off, "length exceeds limit")
	}
	if uint64(n) > uint64(len(d.data)-d.pos) {
		return nil, errors.MalformedError(off, "length exceeds input")
	}
	b := d.data[d.pos : d.pos+int(n) : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}

func checkName(name string) string {
	switch {
	case name == "":
		return "empty entry name"
	case name == "." || name == "..":
		return "reserved entry name"
	case !utf8.ValidString(name):
		return "entry name is not UTF-8"
	case strings.ContainsAny(name, "/\\\x00"):
		return "entry name contains a path separator"
	}
	return ""
}
