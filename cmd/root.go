package cmd

import (
	"fmt"
	"os"

	"rtfdclip/pkg/completions"
	"rtfdclip/pkg/config"
	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/logger"

	"github.com/spf13/cobra"
)

const (
	unknownValue = "unknown"
)

var (
	Version   string
	BuildTime string
	GitCommit string
)

var outputFormat string
var profileName string
var dryRunFlag bool
var assumeYesFlag bool
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "rtfdclip",
	Short: "Copy rich text with embedded images to the clipboard",
	Long: `CLI tool for assembling text and images into one rich document and
publishing it to the clipboard as RTFD, RTF and plain text at once, so a
paste picks the richest format the target application understands.
Settings live in the user config directory; recent copies are kept in a
SQLite history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.UseConsole()
		logger.SetLevel(resolveLogLevel(cmd))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ver := Version
		if ver == "" {
			ver = "dev"
		}
		bt := BuildTime
		if bt == "" {
			bt = unknownValue
		}
		gc := GitCommit
		if gc == "" {
			gc = unknownValue
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rtfdclip version %s\n", ver)
		fmt.Fprintf(out, "Built: %s\n", bt)
		fmt.Fprintf(out, "Git commit: %s\n", gc)
	},
}

// resolveLogLevel picks the level from the flag, then RTFDCLIP_LOG_LEVEL,
// then the config file.
func resolveLogLevel(cmd *cobra.Command) string {
	if cmd.Flags().Changed("log-level") {
		return logLevel
	}
	if envLevel := os.Getenv("RTFDCLIP_LOG_LEVEL"); envLevel != "" {
		return envLevel
	}
	if cfg, err := config.LoadFile(); err == nil && cfg.LogLevel != "" {
		return cfg.LogLevel
	}
	return logLevel
}

// loadConfig loads the configuration with the --profile flag applied.
var loadConfig = func() (*config.Config, error) {
	return config.Load(profileName)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitCode := errors.HandleReturn(err)
		os.Exit(int(exitCode))
	}
}

func init() {
	RegisterCommands(rootCmd)

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Configuration profile to use for this command")
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "Show what would be done without making changes")
	rootCmd.PersistentFlags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error, fatal, panic)")

	completions.RegisterCompletions(rootCmd)
}
