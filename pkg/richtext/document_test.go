package richtext

import (
	"errors"
	"image"
	"image/color"
	"testing"

	rterrors "rtfdclip/pkg/errors"

	"github.com/google/go-cmp/cmp"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

func TestFromText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLen   int
		wantState State
	}{
		{"empty", "", 0, StateEmpty},
		{"ascii", "Hello", 5, StateNonEmpty},
		{"bmp accents", "café", 4, StateNonEmpty},
		{"astral plane counts two units", "a😀", 3, StateNonEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := FromText(tt.text)
			if doc.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", doc.Len(), tt.wantLen)
			}
			if doc.State() != tt.wantState {
				t.Errorf("State() = %v, want %v", doc.State(), tt.wantState)
			}
			if doc.String() != tt.text {
				t.Errorf("String() = %q, want %q", doc.String(), tt.text)
			}
		})
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	doc := FromText("Test String")
	steps := []Fragment{
		NewTextRun("Hello World", nil),
		Wrap(testImage(4, 4)).AsRun(),
		FromText("Another String"),
	}

	want := "Test String"
	for i, f := range steps {
		before := doc.Len()
		if err := doc.Append(f); err != nil {
			t.Fatalf("Append(%d) returned error: %v", i, err)
		}
		added := 0
		for _, r := range f.runs() {
			added += r.Len()
			want += r.Text()
		}
		if doc.Len() != before+added {
			t.Errorf("Len() after append %d = %d, want %d", i, doc.Len(), before+added)
		}
	}

	if doc.String() != want {
		t.Errorf("String() = %q, want %q", doc.String(), want)
	}
	if doc.Len() != 11+11+1+14 {
		t.Errorf("Len() = %d, want %d", doc.Len(), 37)
	}
	if doc.AttachmentCount() != 1 {
		t.Errorf("AttachmentCount() = %d, want 1", doc.AttachmentCount())
	}
}

func TestAppendDocumentKeepsSourceUntouched(t *testing.T) {
	src := FromText("abc")
	if err := src.Append(Wrap(testImage(1, 1)).AsRun()); err != nil {
		t.Fatal(err)
	}
	dst := FromText("")
	if err := dst.Append(src); err != nil {
		t.Fatal(err)
	}
	if err := dst.Append(src); err != nil {
		t.Fatal(err)
	}

	if src.Len() != 4 {
		t.Errorf("source Len() = %d, want 4", src.Len())
	}
	if dst.Len() != 8 {
		t.Errorf("Len() = %d, want 8", dst.Len())
	}
	if len(dst.Runs()) != 4 {
		t.Errorf("len(Runs()) = %d, want 4", len(dst.Runs()))
	}
}

func TestAppendSelf(t *testing.T) {
	doc := FromText("ab")
	if err := doc.Append(doc); err != nil {
		t.Fatal(err)
	}
	if got := doc.String(); got != "abab" {
		t.Errorf("String() = %q, want %q", got, "abab")
	}
}

func TestAppendFailures(t *testing.T) {
	var nilDoc *Document
	tests := []struct {
		name string
		doc  *Document
		f    Fragment
	}{
		{"nil fragment", FromText("x"), nil},
		{"nil source document", FromText("x"), nilDoc},
		{"zero attachment run", FromText("x"), AttachmentRun{}},
		{"nil receiver", nil, NewTextRun("x", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Append(tt.f)
			if !errors.Is(err, rterrors.ErrAppendFailed) {
				t.Fatalf("Append() error = %v, want ErrAppendFailed", err)
			}
			if !rterrors.IsFatal(err) {
				t.Error("append failure should be fatal")
			}
			if tt.doc != nil && tt.doc.Len() != 1 {
				t.Errorf("Len() = %d, want unchanged 1", tt.doc.Len())
			}
		})
	}
}

func TestTextRunIsImmutable(t *testing.T) {
	attrs := Attributes{AttrBold: true}
	run := NewTextRun("x", attrs)
	attrs[AttrBold] = false
	attrs[AttrItalic] = true

	got := run.Attributes()
	if diff := cmp.Diff(Attributes{AttrBold: true}, got); diff != "" {
		t.Errorf("Attributes() mismatch (-want +got):\n%s", diff)
	}
	got[AttrUnderline] = true
	if run.Attributes()[AttrUnderline] != nil {
		t.Error("mutating the returned attributes changed the run")
	}
}

func TestSlice(t *testing.T) {
	doc := FromText("Hello ")
	if err := doc.Append(Wrap(testImage(2, 2)).AsRun()); err != nil {
		t.Fatal(err)
	}
	if err := doc.Append(NewTextRun("World", Attributes{AttrBold: true})); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		rng  Range
		want []string
	}{
		{"full", FullRange(doc), []string{"Hello ", "\ufffc", "World"}},
		{"empty at start", NewRange(0, 0), nil},
		{"empty inside text", NewRange(2, 0), nil},
		{"empty inside styled text", NewRange(9, 0), nil},
		{"inside first run", NewRange(1, 3), []string{"ell"}},
		{"across attachment", NewRange(4, 4), []string{"o ", "\ufffc", "W"}},
		{"attachment only", NewRange(6, 1), []string{"\ufffc"}},
		{"tail", NewRange(7, 5), []string{"World"}},
		{"empty at end", NewRange(12, 0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := doc.Slice(tt.rng)
			if err != nil {
				t.Fatalf("Slice(%v) returned error: %v", tt.rng, err)
			}
			var got []string
			for _, r := range runs {
				got = append(got, r.Text())
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Slice(%v) mismatch (-want +got):\n%s", tt.rng, diff)
			}
		})
	}
}

func TestSliceKeepsAttributes(t *testing.T) {
	doc := FromRun(NewTextRun("World", Attributes{AttrItalic: true}))
	runs, err := doc.Slice(NewRange(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	tr, ok := runs[0].(TextRun)
	if !ok {
		t.Fatalf("Slice() returned %T, want TextRun", runs[0])
	}
	if !tr.Attributes().Bool(AttrItalic) {
		t.Error("clipped run lost its attributes")
	}
	if tr.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tr.Len())
	}
}

func TestRangeValidate(t *testing.T) {
	tests := []struct {
		name    string
		rng     Range
		docLen  int
		wantErr bool
	}{
		{"empty doc empty range", NewRange(0, 0), 0, false},
		{"full", NewRange(0, 5), 5, false},
		{"one past end", NewRange(0, 6), 5, true},
		{"start past end", NewRange(6, 0), 5, true},
		{"negative start", NewRange(-1, 2), 5, true},
		{"negative length", NewRange(1, -1), 5, true},
		{"overflowing end", NewRange(2, int(^uint(0)>>1)), 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rng.Validate(tt.docLen)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, rterrors.ErrRangeOutOfBounds) {
				t.Errorf("Validate() error = %v, want ErrRangeOutOfBounds", err)
			}
		})
	}
}
