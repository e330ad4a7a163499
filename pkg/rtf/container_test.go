package rtf

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"rtfdclip/pkg/errors"

	"github.com/google/go-cmp/cmp"
)

func sampleContainer() *Container {
	return &Container{Entries: []Entry{
		{Name: TextEntryName, Data: []byte(`{\rtf1 hi}`)},
		{Name: "Attachment.tiff", Data: []byte{1, 2, 3}},
		{Name: "notes.txt", Data: []byte("x")},
	}}
}

func TestContainerRoundTrip(t *testing.T) {
	c := sampleContainer()
	got, err := Decode(c.Encode())
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}
	if diff := cmp.Diff(c.Entries, got.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if string(got.Text()) != `{\rtf1 hi}` {
		t.Errorf("Text() = %q", got.Text())
	}
	if len(got.Files()) != 2 {
		t.Errorf("Files() has %d entries, want 2", len(got.Files()))
	}
}

func TestDecodeMalformed(t *testing.T) {
	valid := sampleContainer().Encode()

	patch := func(off int, b ...byte) []byte {
		out := append([]byte(nil), valid...)
		copy(out[off:], b)
		return out
	}
	build := func(entries ...Entry) []byte {
		return (&Container{Entries: entries}).Encode()
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", valid[:8]},
		{"bad magic", patch(0, 'x')},
		{"bad version", patch(4, 9)},
		{"zero entries", patch(8, 0, 0, 0, 0)},
		{"count beyond input", patch(8, 0xff, 0xff, 0, 0)},
		{"name length beyond input", patch(12, 0xff, 0xff, 0xff, 0x7f)},
		{"truncated data", valid[:len(valid)-1]},
		{"trailing data", append(append([]byte(nil), valid...), 0)},
		{"missing text", build(Entry{Name: "a.tiff", Data: []byte{1}})},
		{"text not rtf", build(Entry{Name: TextEntryName, Data: []byte("plain")})},
		{"duplicate name", build(
			Entry{Name: TextEntryName, Data: []byte(`{\rtf1}`)},
			Entry{Name: "a", Data: nil},
			Entry{Name: "a", Data: nil},
		)},
		{"path in name", build(
			Entry{Name: TextEntryName, Data: []byte(`{\rtf1}`)},
			Entry{Name: "../a", Data: nil},
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode(tt.data)
			if err == nil {
				t.Fatalf("Decode() = %v, want error", c)
			}
			if !stderrors.Is(err, errors.ErrMalformed) {
				t.Errorf("Decode() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestBundleRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "doc.rtfd")
	c := sampleContainer()
	if err := c.WriteBundle(dir); err != nil {
		t.Fatalf("WriteBundle() returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, TextEntryName))
	if err != nil {
		t.Fatalf("reading %s: %v", TextEntryName, err)
	}
	if string(data) != `{\rtf1 hi}` {
		t.Errorf("%s = %q", TextEntryName, data)
	}

	got, err := ReadBundle(dir)
	if err != nil {
		t.Fatalf("ReadBundle() returned error: %v", err)
	}
	if diff := cmp.Diff(c.Entries, got.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteBundleRejectsBadName(t *testing.T) {
	c := &Container{Entries: []Entry{{Name: "a/b", Data: nil}}}
	err := c.WriteBundle(t.TempDir())
	if !errors.IsExitCode(err, errors.ExitCodeValidation) {
		t.Errorf("WriteBundle() error = %v, want validation error", err)
	}
}
