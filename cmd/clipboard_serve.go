package cmd

import (
	"encoding/json"

	"rtfdclip/pkg/clipboard"

	"github.com/spf13/cobra"
)

var clipboardServeCmd = &cobra.Command{
	Use:    clipboard.ServeCommand,
	Hidden: true,
	Short:  "Internal: serve clipboard content over Wayland (do not call directly)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var item clipboard.Item
		if err := json.NewDecoder(cmd.InOrStdin()).Decode(&item); err != nil {
			return err
		}
		return clipboard.Serve(&item)
	},
}
