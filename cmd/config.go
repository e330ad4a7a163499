package cmd

import (
	"fmt"

	"rtfdclip/pkg/config"
	"rtfdclip/pkg/errors"

	"github.com/spf13/cobra"
)

var (
	configPolicy   string
	configEncoding string
	configFont     string
	configFontSize float64
	configActivate bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage rtfdclip configuration and profiles",
	Long:  `Manage rtfdclip configuration, including named profiles of serializer settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration: the config file with environment overrides and the active profile applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		output := newOutput(cmd.OutOrStdout())
		if output.IsStructured() {
			return output.Write(cfg)
		}

		historyPath, err := cfg.HistoryPath()
		if err != nil {
			historyPath = unknownValue
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Current Configuration:")
		fmt.Fprintln(w, "======================")
		fmt.Fprintf(w, "Active Profile: %s\n", func() string {
			if cfg.ActiveProfile == "" {
				return "(none)"
			}
			return cfg.ActiveProfile
		}())
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Attachment Policy: %s\n", cfg.Serializer.AttachmentPolicy)
		fmt.Fprintf(w, "Image Encoding: %s\n", cfg.Serializer.ImageEncoding)
		fmt.Fprintf(w, "Default Font: %s %gpt\n", cfg.Serializer.DefaultFont, cfg.Serializer.DefaultFontSize)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "History: %s\n", func() string {
			if !cfg.History.Enabled {
				return "disabled"
			}
			if cfg.History.MaxEntries == 0 {
				return "enabled, unlimited"
			}
			return fmt.Sprintf("enabled, keeps %d entries", cfg.History.MaxEntries)
		}())
		fmt.Fprintf(w, "History Database: %s\n", historyPath)

		if len(cfg.Profiles) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Available Profiles:")
			for _, p := range cfg.Profiles {
				active := ""
				if cfg.IsProfileActive(p.Name) {
					active = " (active)"
				}
				fmt.Fprintf(w, "  - %s%s\n", p.Name, active)
				fmt.Fprintf(w, "      %s\n", describeProfile(p))
			}
		}

		return nil
	},
}

var configProfilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"profile"},
	Short:   "Manage configuration profiles",
	Long:    `List, add, remove, and switch between serializer profiles.`,
}

var configProfilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		profiles := cfg.ListProfiles()
		if len(profiles) == 0 {
			fmt.Fprintln(w, "No profiles configured.")
			fmt.Fprintln(w, "Use 'rtfdclip config profiles add <name>' to create one.")
			return nil
		}

		fmt.Fprintln(w, "Profiles:")
		for _, name := range profiles {
			profile, _ := cfg.GetProfile(name)
			active := ""
			if cfg.IsProfileActive(name) {
				active = " *active*"
			}
			fmt.Fprintf(w, "  %s%s\n", name, active)
			fmt.Fprintf(w, "    %s\n", describeProfile(*profile))
		}

		return nil
	},
}

var configProfilesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Long:  `Add a named set of serializer settings. Settings left out fall back to the top-level configuration.`,
	Example: `  # Presentation slides: large Georgia text, PNG images
  rtfdclip config profiles add slides --font Georgia --size 24 --image-encoding png

  # Add and switch to it
  rtfdclip config profiles add plain --attachments drop --use`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFontSize < 0 {
			return errors.ValidationError("--size must not be negative")
		}

		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		profile := config.Profile{
			Name: args[0],
			Serializer: config.SerializerConfig{
				AttachmentPolicy: configPolicy,
				ImageEncoding:    configEncoding,
				DefaultFont:      configFont,
				DefaultFontSize:  configFontSize,
			},
		}

		if err := cfg.AddProfile(profile); err != nil {
			return errors.ConfigError(err.Error())
		}
		if configActivate {
			if err := cfg.SetProfile(profile.Name); err != nil {
				return errors.ConfigError(err.Error())
			}
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Profile '%s' added successfully.\n", profile.Name)
		if !configActivate {
			fmt.Fprintf(w, "Use 'rtfdclip config profiles use %s' to activate it.\n", profile.Name)
		}

		return nil
	},
}

var configProfilesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		if err := cfg.RemoveProfile(args[0]); err != nil {
			return errors.ConfigError(err.Error())
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' removed successfully.\n", args[0])
		return nil
	},
}

var configProfilesUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch to a profile",
	Long:  `Set the active profile for subsequent commands. Use "none" to go back to the top-level settings.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}

		name := args[0]
		if name == "none" {
			name = ""
		}
		if err := cfg.SetProfile(name); err != nil {
			return errors.ConfigError(err.Error())
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No profile active.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile '%s'.\n", name)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// describeProfile lists the settings a profile overrides.
func describeProfile(p config.Profile) string {
	s := p.Serializer
	desc := ""
	add := func(k, v string) {
		if v == "" {
			return
		}
		if desc != "" {
			desc += ", "
		}
		desc += k + ": " + v
	}
	add("Attachments", s.AttachmentPolicy)
	add("Images", s.ImageEncoding)
	add("Font", s.DefaultFont)
	if s.DefaultFontSize > 0 {
		add("Size", fmt.Sprintf("%gpt", s.DefaultFontSize))
	}
	if desc == "" {
		return "(no overrides)"
	}
	return desc
}

func init() {
	configProfilesAddCmd.Flags().StringVar(&configPolicy, "attachments", "", "Attachment policy for text-only output (placeholder, drop)")
	configProfilesAddCmd.Flags().StringVar(&configEncoding, "image-encoding", "", "Image encoding (tiff, png)")
	configProfilesAddCmd.Flags().StringVar(&configFont, "font", "", "Default font family")
	configProfilesAddCmd.Flags().Float64Var(&configFontSize, "size", 0, "Default font size in points")
	configProfilesAddCmd.Flags().BoolVar(&configActivate, "use", false, "Make the new profile active")

	configProfilesCmd.AddCommand(configProfilesListCmd)
	configProfilesCmd.AddCommand(configProfilesAddCmd)
	configProfilesCmd.AddCommand(configProfilesRemoveCmd)
	configProfilesCmd.AddCommand(configProfilesUseCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configProfilesCmd)
	configCmd.AddCommand(configPathCmd)
}
