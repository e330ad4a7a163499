package rtf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"rtfdclip/pkg/richtext"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/tiff"
)

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestRTFDImageAttachment(t *testing.T) {
	runs := []richtext.Run{
		richtext.NewTextRun("Hello ", nil),
		richtext.Wrap(solidImage(4, 3)).AsRun(),
	}

	data, attrs, err := NewConverter(DefaultOptions()).RTFD(runs, nil)
	if err != nil {
		t.Fatalf("RTFD() returned error: %v", err)
	}
	c, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	if len(c.Entries) != 2 || c.Entries[0].Name != TextEntryName || c.Entries[1].Name != "Attachment.tiff" {
		t.Fatalf("unexpected entries: %+v", c.Entries)
	}
	img, err := tiff.Decode(bytes.NewReader(c.Entries[1].Data))
	if err != nil {
		t.Fatalf("attachment is not a TIFF: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("attachment bounds = %v, want 4x3", b)
	}

	text := string(c.Text())
	if !strings.Contains(text, `{{\NeXTGraphic Attachment.tiff \width80 \height60 `) {
		t.Errorf("text lacks the attachment reference:\n%s", text)
	}

	want := richtext.DocumentAttributes{
		richtext.DocTypeKey:         richtext.DocTypeRTFD,
		richtext.DocCharEncodingKey: CharacterEncoding,
		richtext.DocAttachmentsKey:  1,
	}
	if diff := cmp.Diff(want, attrs); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestRTFDFileAttachments(t *testing.T) {
	runs := []richtext.Run{
		richtext.Wrap(richtext.WrapFile("/tmp/shot.png", pngBytes(t, 2, 2))).AsRun(),
		richtext.Wrap(richtext.WrapFile("shot.png", pngBytes(t, 5, 1))).AsRun(),
		richtext.Wrap(richtext.WrapFile("TXT.rtf", []byte("x"))).AsRun(),
	}
	c, err := NewConverter(Options{ImageEncoding: EncodingPNG}).Container(runs, nil)
	if err != nil {
		t.Fatalf("Container() returned error: %v", err)
	}

	var names []string
	for _, e := range c.Entries {
		names = append(names, e.Name)
	}
	want := []string{TextEntryName, "shot.png", "shot 1.png", "TXT 1.rtf"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("entry names mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(c.Text()), `\NeXTGraphic shot 1.png \width100 \height20 `) {
		t.Errorf("text lacks the second attachment:\n%s", c.Text())
	}
}

func TestRTFDAttachmentWithoutData(t *testing.T) {
	tests := []struct {
		name string
		run  richtext.AttachmentRun
	}{
		{"contents only", richtext.Wrap("note").AsRun()},
		{"empty file", richtext.Wrap(richtext.FileWrapper{Name: "a.bin"}).AsRun()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewConverter(DefaultOptions()).RTFD([]richtext.Run{tt.run}, nil)
			if err == nil {
				t.Error("RTFD() succeeded, want error")
			}
		})
	}
}

func TestRTFIgnoresAttachmentBytes(t *testing.T) {
	build := func(w, h int) []byte {
		runs := []richtext.Run{
			richtext.NewTextRun("see ", nil),
			richtext.Wrap(solidImage(w, h)).AsRun(),
			richtext.NewTextRun(" above", nil),
		}
		data, attrs, err := NewConverter(DefaultOptions()).RTF(runs, nil)
		if err != nil {
			t.Fatalf("RTF() returned error: %v", err)
		}
		if attrs[richtext.DocTypeKey] != richtext.DocTypeRTF {
			t.Errorf("DocumentType = %v, want %s", attrs[richtext.DocTypeKey], richtext.DocTypeRTF)
		}
		if _, ok := attrs[richtext.DocAttachmentsKey]; ok {
			t.Error("RTF attributes should not report an attachment count")
		}
		return data
	}

	small, large := build(1, 1), build(64, 64)
	if !bytes.Equal(small, large) {
		t.Errorf("RTF output depends on the attachment:\nsmall: %q\nlarge: %q", small, large)
	}
}

func TestConverterInputAttributesUntouched(t *testing.T) {
	in := richtext.DocumentAttributes{richtext.DocTitleKey: "T"}
	_, out, err := NewConverter(DefaultOptions()).RTF([]richtext.Run{richtext.NewTextRun("x", nil)}, in)
	if err != nil {
		t.Fatalf("RTF() returned error: %v", err)
	}
	if len(in) != 1 {
		t.Errorf("input attributes modified: %v", in)
	}
	if out[richtext.DocTitleKey] != "T" {
		t.Errorf("title not carried over: %v", out)
	}
}

func TestReadRTFDRoundTrip(t *testing.T) {
	src := richtext.FromText("")
	for _, r := range []richtext.Run{
		richtext.NewTextRun("Plain ", nil),
		richtext.NewTextRun("bold", richtext.Attributes{richtext.AttrBold: true}),
		richtext.NewTextRun(" café Ω \U0001F600{x}\n", nil),
		richtext.Wrap(richtext.WrapFile("pic.png", pngBytes(t, 3, 2))).AsRun(),
		richtext.NewTextRun("end", richtext.Attributes{richtext.AttrItalic: true, richtext.AttrSize: 18.0}),
	} {
		if err := src.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	data, _, err := NewConverter(DefaultOptions()).RTFD(src.Runs(), nil)
	if err != nil {
		t.Fatalf("RTFD() returned error: %v", err)
	}
	got, err := ReadRTFD(data)
	if err != nil {
		t.Fatalf("ReadRTFD() returned error: %v", err)
	}

	if got.Len() != src.Len() {
		t.Errorf("Len() = %d, want %d", got.Len(), src.Len())
	}
	if got.String() != src.String() {
		t.Errorf("String() = %q, want %q", got.String(), src.String())
	}
	if got.AttachmentCount() != 1 {
		t.Fatalf("AttachmentCount() = %d, want 1", got.AttachmentCount())
	}

	var attrsByText = map[string]richtext.Attributes{}
	for _, r := range got.Runs() {
		switch v := r.(type) {
		case richtext.TextRun:
			attrsByText[v.Text()] = v.Attributes()
		case richtext.AttachmentRun:
			fw, ok := v.Attachment().File()
			if !ok || fw.Name != "pic.png" || fw.Width != 3 || fw.Height != 2 {
				t.Errorf("attachment = %+v, want pic.png 3x2", fw)
			}
		}
	}
	if !attrsByText["bold"].Bool(richtext.AttrBold) {
		t.Errorf("bold run lost its weight: %v", attrsByText)
	}
	if s, _ := attrsByText["end"].Float(richtext.AttrSize); s != 18 || !attrsByText["end"].Bool(richtext.AttrItalic) {
		t.Errorf("last run attributes = %v", attrsByText["end"])
	}
}

func TestReadRTFDNonASCIIFileNames(t *testing.T) {
	tests := []struct {
		name    string
		escaped string
	}{
		{"café.pdf", `\NeXTGraphic caf\'e9.pdf \width`},
		{"Ωmega notes.txt", `\NeXTGraphic \u937 mega notes.txt \width`},
		{"{draft}.bin", `\NeXTGraphic \{draft\}.bin \width`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte("%PDF-1.4 payload")
			runs := []richtext.Run{
				richtext.NewTextRun("see ", nil),
				richtext.Wrap(richtext.WrapFile(tt.name, data)).AsRun(),
			}
			out, _, err := NewConverter(DefaultOptions()).RTFD(runs, nil)
			if err != nil {
				t.Fatalf("RTFD() returned error: %v", err)
			}
			c, err := Decode(out)
			if err != nil {
				t.Fatalf("Decode() returned error: %v", err)
			}
			text := string(c.Text())
			if !strings.Contains(text, tt.escaped) {
				t.Errorf("TXT.rtf lacks %q:\n%s", tt.escaped, text)
			}
			for i := 0; i < len(text); i++ {
				if text[i] >= 0x80 {
					t.Fatalf("TXT.rtf has raw byte %#x at %d", text[i], i)
				}
			}

			doc, err := ReadRTFD(out)
			if err != nil {
				t.Fatalf("ReadRTFD() returned error: %v", err)
			}
			runs = doc.Runs()
			if len(runs) != 2 {
				t.Fatalf("len(Runs()) = %d, want 2", len(runs))
			}
			ar, ok := runs[1].(richtext.AttachmentRun)
			if !ok {
				t.Fatalf("Runs()[1] = %T, want AttachmentRun", runs[1])
			}
			fw, ok := ar.Attachment().File()
			if !ok {
				t.Fatalf("attachment keys = %v, want a file wrapper", ar.Attachment().Keys())
			}
			if fw.Name != tt.name {
				t.Errorf("Name = %q, want %q", fw.Name, tt.name)
			}
			if diff := cmp.Diff(data, fw.Data); diff != "" {
				t.Errorf("attachment data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadRTFPlaceholder(t *testing.T) {
	runs := []richtext.Run{
		richtext.NewTextRun("a", nil),
		richtext.Wrap(solidImage(1, 1)).AsRun(),
		richtext.NewTextRun("b", nil),
	}
	data, _, err := NewConverter(DefaultOptions()).RTF(runs, nil)
	if err != nil {
		t.Fatalf("RTF() returned error: %v", err)
	}
	doc, err := Read(data, nil)
	if err != nil {
		t.Fatalf("Read() returned error: %v", err)
	}
	if doc.Len() != 3 || doc.AttachmentCount() != 1 {
		t.Errorf("Len() = %d, AttachmentCount() = %d, want 3 and 1", doc.Len(), doc.AttachmentCount())
	}
}

func TestReadMalformed(t *testing.T) {
	tests := []string{
		"plain text",
		`{\rtf1 unterminated`,
		`{\rtf1 x}}`,
		`{\rtf1 \'zz}`,
	}
	for _, in := range tests {
		if _, err := Read([]byte(in), nil); err == nil {
			t.Errorf("Read(%q) succeeded, want error", in)
		}
	}
}
