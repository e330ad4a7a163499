//go:build linux

package clipboard

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"syscall"

	"rtfdclip/pkg/clipboard/internal/wayland"
	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/logger"

	atotto "github.com/atotto/clipboard"
)

// ServeCommand is the hidden subcommand the owner process runs as.
const ServeCommand = "__clipboard-serve"

// Write publishes item. On Wayland it starts a background owner process
// and returns at once; on X11 only the plain text is written.
func Write(item *Item) error {
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		logger.Debug().Msg("No Wayland display, writing plain text only")
		if err := atotto.WriteAll(item.Plain); err != nil {
			return errors.ClipboardError(err)
		}
		return nil
	}
	if err := spawnOwner(item); err != nil {
		return errors.ClipboardError(err)
	}
	return nil
}

func spawnOwner(item *Item) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	cmd := exec.Command(os.Args[0], ServeCommand)
	cmd.Stdin = bytes.NewReader(payload)
	// Own session so the owner outlives this process.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	logger.Debug().Int("pid", cmd.Process.Pid).Strs("formats", item.Kinds()).Msg("Started clipboard owner")
	return cmd.Process.Release()
}

// Serve runs the Wayland owner for item, blocking until another client
// takes the selection.
func Serve(item *Item) error {
	return wayland.Serve(item.Formats())
}
