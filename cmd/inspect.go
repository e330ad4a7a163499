package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"rtfdclip/pkg/completions"
	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/rtf"

	"github.com/spf13/cobra"
)

var inspectText bool

// InspectEntry is one file of an inspected RTFD.
type InspectEntry struct {
	Name string `json:"name" yaml:"name"`
	Size int    `json:"size" yaml:"size"`
}

// InspectOutput describes an RTF or RTFD document.
type InspectOutput struct {
	Path        string         `json:"path" yaml:"path"`
	Kind        string         `json:"kind" yaml:"kind"`
	Entries     []InspectEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
	Length      int            `json:"length" yaml:"length"`
	Attachments int            `json:"attachments" yaml:"attachments"`
	Text        string         `json:"text" yaml:"text"`
}

const (
	kindFlatRTFD = "flat rtfd"
	kindBundle   = "rtfd bundle"
	kindRTF      = "rtf"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file | dir.rtfd | ->",
	Short: "Show what an RTF or RTFD document contains",
	Long: `Read a flat RTFD container, an .rtfd bundle directory or an RTF file and
list its files, length and attachments. Use "-" to read standard input.

Malformed containers are reported with the byte offset of the problem.`,
	Example: `  # Inspect an export
  rtfdclip inspect notes.rtfd

  # Full text of a piped document as JSON
  rtfdclip export "Hi" @pic.png | rtfdclip inspect - --text -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := inspectPath(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		if !inspectText {
			out.Text = completions.Preview(out.Text, 60)
		}

		output := newOutput(cmd.OutOrStdout())
		if output.IsStructured() {
			return output.Write(out)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Path: %s\n", out.Path)
		fmt.Fprintf(w, "Kind: %s\n", out.Kind)
		fmt.Fprintf(w, "Length: %d\n", out.Length)
		fmt.Fprintf(w, "Attachments: %d\n", out.Attachments)
		if len(out.Entries) > 0 {
			fmt.Fprintln(w, "Files:")
			for _, e := range out.Entries {
				fmt.Fprintf(w, "  %-24s %s\n", e.Name, FormatSize(e.Size))
			}
		}
		fmt.Fprintf(w, "Text: %s\n", out.Text)
		return nil
	},
}

// inspectPath loads the document at path, reading stdin for "-".
func inspectPath(stdin io.Reader, path string) (*InspectOutput, error) {
	out := &InspectOutput{Path: path}

	var c *rtf.Container
	if path != "-" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.NewWithError(errors.ExitCodeFileOperation, "failed to open "+path, err)
		}
		if info.IsDir() {
			c, err = rtf.ReadBundle(path)
			if err != nil {
				return nil, err
			}
			out.Kind = kindBundle
		}
	}

	if c == nil {
		data, err := readInput(stdin, path)
		if err != nil {
			return nil, err
		}
		switch {
		case bytes.HasPrefix(data, []byte("rtfd")):
			c, err = rtf.Decode(data)
			if err != nil {
				return nil, err
			}
			out.Kind = kindFlatRTFD
		case bytes.HasPrefix(data, []byte(`{\rtf`)):
			c = &rtf.Container{Entries: []rtf.Entry{{Name: rtf.TextEntryName, Data: data}}}
			out.Kind = kindRTF
		default:
			return nil, errors.MalformedError(0, "neither RTF nor RTFD")
		}
	}

	doc, err := rtf.Read(c.Text(), c.Files())
	if err != nil {
		return nil, err
	}
	if out.Kind != kindRTF {
		for _, e := range c.Entries {
			out.Entries = append(out.Entries, InspectEntry{Name: e.Name, Size: len(e.Data)})
		}
	}
	out.Length = doc.Len()
	out.Attachments = doc.AttachmentCount()
	out.Text = doc.String()
	return out, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeFileOperation, "failed to read "+path, err)
	}
	return data, nil
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectText, "text", false, "Show the full text instead of a preview")
}
