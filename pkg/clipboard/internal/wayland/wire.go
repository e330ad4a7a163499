//go:build linux

package wayland

import (
	"encoding/binary"
	"fmt"
	"syscall"
)

var le = binary.LittleEndian

// headerSize is the object id plus the opcode/size word.
const headerSize = 8

// message is one decoded wire event.
type message struct {
	object uint32
	opcode uint16
	body   []byte
	fd     int // -1 unless the compositor passed a descriptor
}

// args builds a request body. Every field is padded to 32 bits.
type args []byte

func (a args) u32(v uint32) args {
	return le.AppendUint32(a, v)
}

// str appends a length-prefixed, NUL-terminated, padded string.
func (a args) str(s string) args {
	n := len(s) + 1
	a = le.AppendUint32(a, uint32(n))
	a = append(a, s...)
	a = append(a, 0)
	for pad := (4 - n%4) % 4; pad > 0; pad-- {
		a = append(a, 0)
	}
	return a
}

// frame prepends the header to body.
func frame(object uint32, opcode uint16, body args) []byte {
	size := headerSize + len(body)
	buf := make([]byte, headerSize, size)
	le.PutUint32(buf[0:], object)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	return append(buf, body...)
}

// split cuts the first complete message off buf. ok is false while buf
// holds less than a full message.
func split(buf []byte) (m message, rest []byte, ok bool, err error) {
	if len(buf) < headerSize {
		return message{}, buf, false, nil
	}
	word := le.Uint32(buf[4:8])
	size := int(word >> 16)
	if size < headerSize {
		return message{}, buf, false, fmt.Errorf("wayland: bad message size %d", size)
	}
	if len(buf) < size {
		return message{}, buf, false, nil
	}
	m = message{
		object: le.Uint32(buf[0:4]),
		opcode: uint16(word),
		body:   append([]byte(nil), buf[headerSize:size]...),
		fd:     -1,
	}
	return m, buf[size:], true, nil
}

// readString decodes a string argument and returns the remaining body.
func readString(body []byte) (string, []byte, error) {
	if len(body) < 4 {
		return "", body, fmt.Errorf("wayland: short string length field")
	}
	n := int(le.Uint32(body))
	body = body[4:]
	if n == 0 {
		return "", body, nil
	}
	padded := (n + 3) &^ 3
	if len(body) < padded {
		return "", body, fmt.Errorf("wayland: short string data")
	}
	return string(body[:n-1]), body[padded:], nil
}

// conn is a client connection to the compositor socket.
type conn struct {
	fd  int
	in  []byte
	fds []int
}

func dial(path string) (*conn, error) {
	fd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	if err := syscall.Connect(fd, &syscall.SockaddrUnix{Name: path}); err != nil {
		syscall.Close(fd) //nolint:errcheck
		return nil, err
	}
	return &conn{fd: fd}, nil
}

func (c *conn) close() {
	for _, fd := range c.fds {
		syscall.Close(fd) //nolint:errcheck
	}
	syscall.Close(c.fd) //nolint:errcheck
}

func (c *conn) send(object uint32, opcode uint16, body args) error {
	return writeAll(c.fd, frame(object, opcode, body))
}

// next blocks until a whole event is buffered. A descriptor received with
// SCM_RIGHTS is handed to the first event decoded after it.
func (c *conn) next() (message, error) {
	for {
		m, rest, ok, err := split(c.in)
		if err != nil {
			return message{}, err
		}
		if ok {
			c.in = rest
			if len(c.fds) > 0 {
				m.fd, c.fds = c.fds[0], c.fds[1:]
			}
			return m, nil
		}

		buf := make([]byte, 4096)
		oob := make([]byte, syscall.CmsgSpace(4*8))
		n, oobn, _, _, err := syscall.Recvmsg(c.fd, buf, oob, 0)
		if err != nil {
			return message{}, err
		}
		if n == 0 {
			return message{}, fmt.Errorf("wayland: connection closed")
		}
		c.in = append(c.in, buf[:n]...)
		if oobn > 0 {
			c.fds = append(c.fds, unixRights(oob[:oobn])...)
		}
	}
}

func unixRights(oob []byte) []int {
	scms, err := syscall.ParseSocketControlMessage(oob)
	if err != nil {
		return nil
	}
	var fds []int
	for i := range scms {
		rights, err := syscall.ParseUnixRights(&scms[i])
		if err == nil {
			fds = append(fds, rights...)
		}
	}
	return fds
}

// writeAll writes data to fd, retrying short writes and EINTR.
func writeAll(fd int, data []byte) error {
	for len(data) > 0 {
		n, err := syscall.Write(fd, data)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
