//go:build !linux

package clipboard

import (
	"rtfdclip/pkg/errors"

	atotto "github.com/atotto/clipboard"
)

const ServeCommand = "__clipboard-serve"

// Write publishes the plain text of item; rich formats need the Wayland
// owner, which only exists on Linux.
func Write(item *Item) error {
	if err := atotto.WriteAll(item.Plain); err != nil {
		return errors.ClipboardError(err)
	}
	return nil
}

// Serve is a no-op outside Linux.
func Serve(item *Item) error {
	return nil
}
