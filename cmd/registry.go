package cmd

import "github.com/spf13/cobra"

func RegisterCommands(root *cobra.Command) {
	root.AddCommand(versionCmd)
	root.AddCommand(clipboardServeCmd)

	root.AddCommand(copyCmd)
	root.AddCommand(exportCmd)
	root.AddCommand(inspectCmd)
	root.AddCommand(historyCmd)
	root.AddCommand(configCmd)

	historyCmd.AddCommand(
		historyListCmd,
		historyShowCmd,
		historyCopyCmd,
		historyDeleteCmd,
		historyClearCmd,
	)
}
