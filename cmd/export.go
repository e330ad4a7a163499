package cmd

import (
	"fmt"
	"os"

	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/logger"
	"rtfdclip/pkg/richtext"
	"rtfdclip/pkg/rtf"
	"rtfdclip/pkg/serializer"

	"github.com/spf13/cobra"
)

var (
	exportFlags  documentFlags
	exportFormat string
	exportFile   string
	exportBundle string
)

var exportCmd = &cobra.Command{
	Use:   "export [text | @image]...",
	Short: "Write the document to a file instead of the clipboard",
	Long: `Assemble the arguments like 'copy' does and write one format to a file or
standard output: a flat RTFD container, text-only RTF or plain text.

With --bundle the RTFD is written as an .rtfd directory holding TXT.rtf and
one file per attachment, which word processors open directly.`,
	Example: `  # Flat RTFD to a file
  rtfdclip export -f notes.rtfd.flat "Diagram:" @diagram.png

  # RTFD bundle directory
  rtfdclip export --bundle notes.rtfd "Diagram:" @diagram.png

  # Text-only RTF to standard output
  rtfdclip export --format rtf --italic "quoted"`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportBundle != "" && cmd.Flags().Changed("format") && exportFormat != "rtfd" {
		return errors.ValidationError("--bundle writes RTFD; it cannot be combined with --format " + exportFormat)
	}
	if exportBundle != "" {
		exportFormat = serializer.FormatRTFD.String()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := exportFlags.options(cfg)
	if err != nil {
		return err
	}
	rng, err := exportFlags.rng()
	if err != nil {
		return err
	}
	doc, err := exportFlags.build(cmd, args)
	if err != nil {
		return err
	}
	full := richtext.FullRange(doc)
	if rng == nil {
		rng = &full
	}

	ser := newSerializer(opts)
	data, err := exportData(ser, doc, *rng)
	if err != nil {
		return err
	}

	if exportBundle != "" {
		return writeBundle(cmd, data, exportBundle)
	}

	if exportFile == "" || exportFile == "-" {
		if IsDryRun() {
			PrintDryRun("Would write %d bytes of %s to standard output", len(data), exportFormat)
			return nil
		}
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if IsDryRun() {
		PrintDryRunAction("write "+exportFormat, map[string]string{
			"File": exportFile,
			"Size": FormatSize(len(data)),
		})
		return nil
	}
	if err := os.WriteFile(exportFile, data, 0644); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to write "+exportFile, err)
	}
	logger.Info().Str("file", exportFile).Str("format", exportFormat).Int("bytes", len(data)).Msg("Exported document")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%s) to %s\n", FormatSize(len(data)), exportFormat, exportFile)
	return nil
}

// exportData serializes rng of doc in the --format format.
func exportData(ser *serializer.Serializer, doc *richtext.Document, rng richtext.Range) ([]byte, error) {
	if exportFormat == "txt" {
		text, err := ser.PlainTextRange(doc, rng)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	}

	format, err := serializer.ParseFormat(exportFormat)
	if err != nil {
		return nil, errors.ValidationError(err.Error() + ", or txt")
	}
	var p *serializer.Payload
	if format == serializer.FormatRTFD {
		p, err = ser.ToRTFD(doc, rng, exportFlags.documentAttributes())
	} else {
		p, err = ser.ToRTF(doc, rng, exportFlags.documentAttributes())
	}
	if err != nil {
		return nil, err
	}
	return p.Data, nil
}

func writeBundle(cmd *cobra.Command, flat []byte, dir string) error {
	c, err := rtf.Decode(flat)
	if err != nil {
		return err
	}
	if IsDryRun() {
		details := map[string]string{"Directory": dir}
		for _, e := range c.Entries {
			details[e.Name] = FormatSize(len(e.Data))
		}
		PrintDryRunAction("write RTFD bundle", details)
		return nil
	}
	if err := c.WriteBundle(dir); err != nil {
		return err
	}
	logger.Info().Str("dir", dir).Int("entries", len(c.Entries)).Msg("Exported RTFD bundle")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote RTFD bundle with %s to %s\n", plural(len(c.Entries), "file"), dir)
	return nil
}

func init() {
	exportFlags.bind(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "rtfd", "Format to write (rtfd, rtf, txt)")
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "Output file (default: standard output)")
	exportCmd.Flags().StringVar(&exportBundle, "bundle", "", "Write an .rtfd bundle directory instead of a single file")
	exportCmd.MarkFlagsMutuallyExclusive("file", "bundle")
}
