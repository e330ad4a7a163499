//go:build linux

// Package wayland owns the Wayland selection through the wlr-data-control
// protocol, speaking the wire format directly so no C library is needed.
package wayland

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"rtfdclip/pkg/logger"
)

// Object ids this client allocates.
const (
	idDisplay uint32 = iota + 1
	idRegistry
	idSync1
	idSeat
	idManager
	idSource
	idDevice
	idSync2
)

// Opcodes used on each interface.
const (
	displaySync        = 0
	displayGetRegistry = 1
	registryBind       = 0
	registryGlobal     = 0
	callbackDone       = 0
	managerNewSource   = 0
	managerGetDevice   = 1
	sourceOffer        = 0
	sourceSend         = 0
	sourceCancelled    = 1
	deviceSetSelection = 0
)

const managerInterface = "zwlr_data_control_manager_v1"

// owner serves one set of formats for as long as it holds the selection.
type owner struct {
	c       *conn
	formats map[string][]byte
	seat    uint32
	manager uint32
}

// Serve takes the clipboard selection and answers paste requests until
// another client takes it. formats maps MIME type to contents.
func Serve(formats map[string][]byte) error {
	path, err := socketPath()
	if err != nil {
		return err
	}
	c, err := dial(path)
	if err != nil {
		return fmt.Errorf("wayland: connect %s: %w", path, err)
	}
	defer c.close()

	o := &owner{c: c, formats: formats}
	if err := o.discover(); err != nil {
		return err
	}
	if err := o.claim(); err != nil {
		return err
	}
	return o.serve()
}

func socketPath() (string, error) {
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	if filepath.IsAbs(display) {
		return display, nil
	}
	runtime := os.Getenv("XDG_RUNTIME_DIR")
	if runtime == "" {
		return "", fmt.Errorf("wayland: XDG_RUNTIME_DIR not set")
	}
	return filepath.Join(runtime, display), nil
}

// discover lists the registry globals and remembers the seat and the
// data-control manager.
func (o *owner) discover() error {
	if err := o.c.send(idDisplay, displayGetRegistry, args{}.u32(idRegistry)); err != nil {
		return err
	}
	if err := o.c.send(idDisplay, displaySync, args{}.u32(idSync1)); err != nil {
		return err
	}

	var haveSeat, haveManager bool
	for {
		m, err := o.c.next()
		if err != nil {
			return err
		}
		closeFD(m.fd)

		if m.object == idSync1 && m.opcode == callbackDone {
			break
		}
		if m.object != idRegistry || m.opcode != registryGlobal || len(m.body) < 4 {
			continue
		}
		name := le.Uint32(m.body)
		iface, _, err := readString(m.body[4:])
		if err != nil {
			continue
		}
		switch iface {
		case "wl_seat":
			if !haveSeat {
				o.seat, haveSeat = name, true
			}
		case managerInterface:
			o.manager, haveManager = name, true
		}
	}

	if !haveSeat {
		return fmt.Errorf("wayland: wl_seat not found")
	}
	if !haveManager {
		return fmt.Errorf("wayland: %s not found (compositor may not support wlr-data-control)", managerInterface)
	}
	return nil
}

// claim offers every format and sets the selection, then waits for the
// compositor to acknowledge the requests.
func (o *owner) claim() error {
	requests := []struct {
		object uint32
		opcode uint16
		body   args
	}{
		{idRegistry, registryBind, args{}.u32(o.seat).str("wl_seat").u32(1).u32(idSeat)},
		{idRegistry, registryBind, args{}.u32(o.manager).str(managerInterface).u32(2).u32(idManager)},
		{idManager, managerNewSource, args{}.u32(idSource)},
	}
	for _, r := range requests {
		if err := o.c.send(r.object, r.opcode, r.body); err != nil {
			return err
		}
	}

	for _, mime := range mimeTypes(o.formats) {
		if err := o.c.send(idSource, sourceOffer, args{}.str(mime)); err != nil {
			return err
		}
	}

	if err := o.c.send(idManager, managerGetDevice, args{}.u32(idDevice).u32(idSeat)); err != nil {
		return err
	}
	if err := o.c.send(idDevice, deviceSetSelection, args{}.u32(idSource)); err != nil {
		return err
	}
	if err := o.c.send(idDisplay, displaySync, args{}.u32(idSync2)); err != nil {
		return err
	}

	for {
		m, err := o.c.next()
		if err != nil {
			return err
		}
		closeFD(m.fd)
		if m.object == idSync2 && m.opcode == callbackDone {
			logger.Debug().Strs("formats", mimeTypes(o.formats)).Msg("Clipboard selection claimed")
			return nil
		}
	}
}

// serve answers send events until the source is cancelled or the
// compositor goes away.
func (o *owner) serve() error {
	for {
		m, err := o.c.next()
		if err != nil {
			logger.Debug().Err(err).Msg("Compositor connection ended")
			return nil
		}
		if m.object != idSource {
			closeFD(m.fd)
			continue
		}

		switch m.opcode {
		case sourceSend:
			mime, _, _ := readString(m.body)
			o.send(mime, m.fd)
		case sourceCancelled:
			closeFD(m.fd)
			logger.Debug().Msg("Clipboard selection taken by another client")
			return nil
		default:
			closeFD(m.fd)
		}
	}
}

func (o *owner) send(mime string, fd int) {
	if fd < 0 {
		return
	}
	defer closeFD(fd)
	data, ok := o.formats[mime]
	if !ok {
		return
	}
	if err := writeAll(fd, data); err != nil {
		logger.Warn().Err(err).Str("mime", mime).Msg("Failed to deliver clipboard data")
	}
}

// mimeTypes returns the offered types in a stable order.
func mimeTypes(formats map[string][]byte) []string {
	out := make([]string, 0, len(formats))
	for k := range formats {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func closeFD(fd int) {
	if fd >= 0 {
		syscall.Close(fd) //nolint:errcheck
	}
}
