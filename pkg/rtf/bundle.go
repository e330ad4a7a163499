package rtf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"rtfdclip/pkg/errors"
)

// WriteBundle writes c as an .rtfd directory: one file per entry.
func (c *Container) WriteBundle(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to create bundle directory", err)
	}
	for _, e := range c.Entries {
		if reason := checkName(e.Name); reason != "" {
			return errors.ValidationError(fmt.Sprintf("bundle entry %q: %s", e.Name, reason))
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name), e.Data, 0644); err != nil {
			return errors.NewWithError(errors.ExitCodeFileOperation, "failed to write bundle entry "+e.Name, err)
		}
	}
	return nil
}

// ReadBundle loads an .rtfd directory. TXT.rtf comes first, the remaining
// files follow in name order; subdirectories are ignored.
func ReadBundle(dir string) (*Container, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeFileOperation, "failed to read bundle", err)
	}
	var names []string
	for _, it := range items {
		if it.Type().IsRegular() && it.Name() != TextEntryName {
			names = append(names, it.Name())
		}
	}
	sort.Strings(names)
	names = append([]string{TextEntryName}, names...)

	c := &Container{}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.NewWithError(errors.ExitCodeFileOperation, "failed to read bundle entry "+name, err)
		}
		c.Entries = append(c.Entries, Entry{Name: name, Data: data})
	}
	return c, nil
}
