package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rtfdclip/pkg/completions"
	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/filter"
	"rtfdclip/pkg/history"
	"rtfdclip/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	historyLimit    int
	historyShowText bool
	historyFilter   filter.EntryFilter
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and re-copy earlier copies",
	Long: `Every copy is recorded in a local SQLite database with all the formats that
were published. Entries are addressed by id; any unique prefix of at least
four characters works.`,
}

var historyListCmd = NewCommand("list", "List recorded copies, newest first", "").
	WithAliases("ls").
	WithExample(`  rtfdclip history list --limit 5
  rtfdclip history list --search "release" --since 24h
  rtfdclip history list --attachments -o json`).
	WithHistory(func(cmd *cobra.Command, args []string, store *history.Store) error {
		entries, err := listEntries(store)
		if err != nil {
			return err
		}
		logger.Debug().Int("count", len(entries)).Msg("Listed history")

		output := newOutput(cmd.OutOrStdout())
		if output.IsStructured() {
			return output.Write(entries)
		}

		w := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(w, "No copies recorded yet.")
			return nil
		}
		fmt.Fprintf(w, "%-8s  %-11s  %6s  %3s  %-16s  %s\n", "ID", "COPIED", "LENGTH", "ATT", "FORMATS", "TEXT")
		for _, e := range entries {
			fmt.Fprintf(w, "%-8s  %-11s  %6d  %3d  %-16s  %s\n",
				shortID(e.ID), FormatTimestamp(e.CreatedAt), e.Length, e.Attachments,
				strings.Join(entryKinds(e), ","), completions.Preview(e.Plain, 40))
		}
		return nil
	}).
	Build()

var historyShowCmd = NewCommand("show <id>", "Show one recorded copy", "").
	WithExactArgs(1).
	WithHistory(func(cmd *cobra.Command, args []string, store *history.Store) error {
		e, err := store.Get(args[0])
		if err != nil {
			return err
		}

		output := newOutput(cmd.OutOrStdout())
		if output.IsStructured() {
			return output.Write(e)
		}

		w := cmd.OutOrStdout()
		if historyShowText {
			fmt.Fprint(w, e.Plain)
			return nil
		}
		fmt.Fprintf(w, "ID: %s\n", e.ID)
		fmt.Fprintf(w, "Copied: %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Length: %d\n", e.Length)
		fmt.Fprintf(w, "Attachments: %d\n", e.Attachments)
		fmt.Fprintf(w, "RTFD: %s\n", FormatSize(e.RTFDSize))
		fmt.Fprintf(w, "RTF: %s\n", FormatSize(e.RTFSize))
		fmt.Fprintf(w, "Text: %s\n", completions.Preview(e.Plain, 60))
		return nil
	}).
	Build()

var historyCopyCmd = NewCommand("copy <id>", "Publish a recorded copy to the clipboard again", "").
	WithExactArgs(1).
	WithHistory(func(cmd *cobra.Command, args []string, store *history.Store) error {
		e, err := store.Get(args[0])
		if err != nil {
			return err
		}
		item := e.Item()
		out := CopyOutput{
			ID:          e.ID,
			Formats:     item.Kinds(),
			Length:      e.Length,
			Attachments: e.Attachments,
			RTFSize:     e.RTFSize,
			RTFDSize:    e.RTFDSize,
		}
		if IsDryRun() {
			out.DryRun = true
			return writeCopyOutput(cmd, out)
		}
		if err := publish(item); err != nil {
			return err
		}
		logger.Info().Str("id", e.ID).Msg("Re-published history entry")
		return writeCopyOutput(cmd, out)
	}).
	Build()

var historyDeleteCmd = NewCommand("delete <id>", "Delete one recorded copy", "").
	WithAliases("rm").
	WithExactArgs(1).
	WithHistory(func(cmd *cobra.Command, args []string, store *history.Store) error {
		e, err := store.Get(args[0])
		if err != nil {
			return err
		}
		err = RequireConfirmation("delete a history entry", map[string]string{
			"ID":   e.ID,
			"Text": completions.Preview(e.Plain, 40),
		})
		if err == errDryRun {
			return nil
		}
		if err != nil {
			return err
		}
		if err := store.Delete(e.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", shortID(e.ID))
		return nil
	}).
	Build()

var historyClearCmd = NewCommand("clear", "Delete every recorded copy", "").
	WithHistory(func(cmd *cobra.Command, args []string, store *history.Store) error {
		n, err := store.Count()
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "History is already empty.")
			return nil
		}
		err = RequireConfirmation("clear the copy history", map[string]string{
			"Entries": strconv.Itoa(n),
		})
		if err == errDryRun {
			return nil
		}
		if err != nil {
			return err
		}
		removed, err := store.Clear()
		if err != nil {
			return err
		}
		noun := "entries"
		if removed == 1 {
			noun = "entry"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d %s\n", removed, noun)
		return nil
	}).
	Build()

// listEntries applies the filter flags before --limit.
func listEntries(store *history.Store) ([]history.Entry, error) {
	if historyFilter.IsZero() {
		return store.List(historyLimit)
	}
	entries, err := store.List(0)
	if err != nil {
		return nil, err
	}
	entries, err = historyFilter.Apply(entries, time.Now())
	if err != nil {
		return nil, errors.ValidationError(err.Error())
	}
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}
	return entries, nil
}

// entryKinds names the formats an entry carries, without loading blobs.
func entryKinds(e history.Entry) []string {
	var kinds []string
	if e.RTFDSize > 0 {
		kinds = append(kinds, "rtfd")
	}
	if e.RTFSize > 0 {
		kinds = append(kinds, "rtf")
	}
	return append(kinds, "txt")
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries to show (0 for all)")
	historyListCmd.Flags().StringVarP(&historyFilter.Text, "search", "s", "", "Only entries whose text contains this, ignoring case")
	historyListCmd.Flags().StringVar(&historyFilter.TextRegex, "regex", "", "Only entries whose text matches this regular expression")
	historyListCmd.Flags().StringVar(&historyFilter.TextFuzzy, "fuzzy", "", "Only entries whose text contains these characters in order")
	historyListCmd.Flags().DurationVar(&historyFilter.Since, "since", 0, "Only entries copied within this long (e.g. 2h, 30m)")
	historyListCmd.Flags().BoolVar(&historyFilter.WithAttachments, "attachments", false, "Only entries with at least one attachment")
	historyShowCmd.Flags().BoolVar(&historyShowText, "text", false, "Print only the plain text")
}
