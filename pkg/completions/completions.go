package completions

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"rtfdclip/pkg/config"
	"rtfdclip/pkg/history"

	"github.com/spf13/cobra"
)

type Completer struct {
	loadConfig func() (*config.Config, error)
}

func NewCompleter() *Completer {
	return &Completer{loadConfig: config.LoadFile}
}

func (c *Completer) CompleteExportFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.describe([]string{"rtfd", "rtf", "txt"}, toComplete, getExportFormatDescription), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteOutputFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.describe([]string{"table", "json", "yaml"}, toComplete, getOutputFormatDescription), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteAttachmentPolicy(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.describe([]string{"placeholder", "drop"}, toComplete, getPolicyDescription), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteImageEncoding(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.describe([]string{"tiff", "png"}, toComplete, getEncodingDescription), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteProfiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := c.loadConfig()
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	return c.filterPrefix(cfg.ListProfiles(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// CompleteHistoryIDs offers recorded copies, newest first, with a preview
// of their text.
func (c *Completer) CompleteHistoryIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	store, err := history.Open(path)
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	defer store.Close()

	entries, err := store.List(50)
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, fmt.Sprintf("%s\t%s", e.ID, Preview(e.Plain, 40)))
	}
	return c.filterPrefix(ids, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// Preview returns the first line of text cut to n characters.
func Preview(text string, n int) string {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i] + "..."
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return string(r[:n]) + "..."
}

func (c *Completer) describe(items []string, prefix string, desc func(string) string) []string {
	results := c.filterPrefix(items, prefix)
	for i, item := range results {
		results[i] = fmt.Sprintf("%s\t%s", item, desc(item))
	}
	return results
}

func (c *Completer) filterPrefix(items []string, prefix string) []string {
	var result []string
	for _, item := range items {
		itemName := strings.Split(item, "\t")[0]
		if strings.HasPrefix(strings.ToLower(itemName), strings.ToLower(prefix)) {
			result = append(result, item)
		}
	}
	return result
}

func getExportFormatDescription(format string) string {
	switch format {
	case "rtfd":
		return "RTF with attachments (flat container or .rtfd bundle)"
	case "rtf":
		return "Text-only RTF"
	case "txt":
		return "Plain UTF-8 text"
	default:
		return ""
	}
}

func getOutputFormatDescription(format string) string {
	switch format {
	case "table":
		return "Aligned columns"
	case "json":
		return "JSON document"
	case "yaml":
		return "YAML document"
	default:
		return ""
	}
}

func getPolicyDescription(policy string) string {
	switch policy {
	case "placeholder":
		return "Write U+FFFC where an attachment was"
	case "drop":
		return "Leave attachments out of text-only output"
	default:
		return ""
	}
}

func getEncodingDescription(enc string) string {
	switch enc {
	case "tiff":
		return "Deflate-compressed TIFF"
	case "png":
		return "PNG"
	default:
		return ""
	}
}

func RegisterCompletions(rootCmd *cobra.Command) {
	completer := NewCompleter()

	rootCmd.RegisterFlagCompletionFunc("output", completer.CompleteOutputFormat)
	rootCmd.RegisterFlagCompletionFunc("profile", completer.CompleteProfiles)

	for _, path := range [][]string{{"copy"}, {"export"}} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd == rootCmd {
			continue
		}
		cmd.RegisterFlagCompletionFunc("attachments", completer.CompleteAttachmentPolicy)
		cmd.RegisterFlagCompletionFunc("image-encoding", completer.CompleteImageEncoding)
	}

	if exportCmd, _, err := rootCmd.Find([]string{"export"}); err == nil && exportCmd != rootCmd {
		exportCmd.RegisterFlagCompletionFunc("format", completer.CompleteExportFormat)
	}

	for _, path := range [][]string{{"history", "show"}, {"history", "copy"}, {"history", "delete"}} {
		if cmd, _, err := rootCmd.Find(path); err == nil && cmd.Name() == path[len(path)-1] {
			cmd.ValidArgsFunction = completer.CompleteHistoryIDs
		}
	}

	for _, path := range [][]string{{"config", "profiles", "use"}, {"config", "profiles", "remove"}} {
		if cmd, _, err := rootCmd.Find(path); err == nil && cmd.Name() == path[len(path)-1] {
			cmd.ValidArgsFunction = completer.CompleteProfiles
		}
	}
}
