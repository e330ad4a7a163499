package cmd

import (
	"fmt"
	"strings"

	"rtfdclip/pkg/clipboard"
	"rtfdclip/pkg/config"
	"rtfdclip/pkg/logger"
	"rtfdclip/pkg/pipeline"

	"github.com/spf13/cobra"
)

var (
	copyFlags     documentFlags
	copyRTFOnly   bool
	copyNoHistory bool
)

// publish hands an item to the system clipboard.
var publish = clipboard.Write

// CopyOutput is the structured result of a copy.
type CopyOutput struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Formats     []string `json:"formats" yaml:"formats"`
	Length      int      `json:"length" yaml:"length"`
	Attachments int      `json:"attachments" yaml:"attachments"`
	RTFSize     int      `json:"rtf_size" yaml:"rtf_size"`
	RTFDSize    int      `json:"rtfd_size" yaml:"rtfd_size"`
	DryRun      bool     `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

var copyCmd = &cobra.Command{
	Use:   "copy [text | @image]...",
	Short: "Copy text and images to the clipboard as one rich document",
	Long: `Assemble the arguments, in order, into one document and publish it to the
clipboard as RTFD, RTF and plain text.

An argument starting with "@" names an image file to embed at that position;
start an argument with "@@" to copy a literal "@". Without arguments the text
is read from standard input.

If a rich format cannot be produced, for example because an attachment has no
data to store, the copy falls back to the formats that could.`,
	Example: `  # Text around a screenshot
  rtfdclip copy "Build failed here:" @screenshot.png "see line 42"

  # Bold heading from standard input
  echo "Release notes" | rtfdclip copy --bold --size 18

  # Only the second word, as RTF and plain text
  rtfdclip copy --range 6:5 --rtf-only "Hello World"

  # Keep the PNG bytes instead of re-encoding to TIFF
  rtfdclip copy --keep-original @diagram.png`,
	RunE: runCopy,
}

func runCopy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := copyFlags.options(cfg)
	if err != nil {
		return err
	}
	rng, err := copyFlags.rng()
	if err != nil {
		return err
	}
	doc, err := copyFlags.build(cmd, args)
	if err != nil {
		return err
	}

	item, err := pipeline.Compose(doc, newSerializer(opts), pipeline.ComposeOptions{
		Range:      rng,
		Attributes: copyFlags.documentAttributes(),
		SkipRTFD:   copyRTFOnly,
	})
	if err != nil {
		return err
	}

	out := CopyOutput{
		Formats:     item.Kinds(),
		Length:      lengthOf(doc, rng),
		Attachments: attachmentsIn(doc, rng),
		RTFSize:     len(item.RTF),
		RTFDSize:    len(item.RTFD),
	}

	if IsDryRun() {
		out.DryRun = true
		return writeCopyOutput(cmd, out)
	}

	if err := publish(item); err != nil {
		return err
	}
	logger.Info().Strs("formats", out.Formats).Int("length", out.Length).Msg("Published clipboard item")

	if cfg.History.Enabled && !copyNoHistory {
		out.ID = recordCopy(cfg, item, out.Length, out.Attachments)
	}

	return writeCopyOutput(cmd, out)
}

// recordCopy stores item in the history and trims it to the configured
// size. A history failure never fails the copy itself.
func recordCopy(cfg *config.Config, item *clipboard.Item, length, attachments int) string {
	store, err := openHistory(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("Copy not recorded in history")
		return ""
	}
	defer store.Close()

	entry, err := store.Record(item, length, attachments)
	if err != nil {
		logger.Warn().Err(err).Msg("Copy not recorded in history")
		return ""
	}
	if cfg.History.MaxEntries > 0 {
		if n, err := store.Prune(cfg.History.MaxEntries); err != nil {
			logger.Warn().Err(err).Msg("Failed to prune history")
		} else if n > 0 {
			logger.Debug().Int("removed", n).Msg("Pruned history")
		}
	}
	return entry.ID
}

func writeCopyOutput(cmd *cobra.Command, out CopyOutput) error {
	output := newOutput(cmd.OutOrStdout())
	if output.IsStructured() {
		return output.Write(out)
	}

	w := cmd.OutOrStdout()
	verb := "Copied"
	if out.DryRun {
		verb = "[DRY-RUN] Would copy"
	}
	fmt.Fprintf(w, "✓ %s %s to clipboard (%s)\n", verb, describeContent(out.Length, out.Attachments), strings.Join(out.Formats, ", "))
	if out.ID != "" {
		fmt.Fprintf(w, "  History: %s\n", shortID(out.ID))
	}
	return nil
}

// describeContent renders "11 characters and 1 attachment". length counts
// each attachment as one unit.
func describeContent(length, attachments int) string {
	s := plural(length-attachments, "character")
	if attachments > 0 {
		s += " and " + plural(attachments, "attachment")
	}
	return s
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	copyFlags.bind(copyCmd)
	copyCmd.Flags().BoolVar(&copyRTFOnly, "rtf-only", false, "Leave out the RTFD format")
	copyCmd.Flags().BoolVar(&copyNoHistory, "no-history", false, "Do not record this copy in the history")
}
