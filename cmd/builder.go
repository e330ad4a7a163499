package cmd

import (
	"fmt"

	"rtfdclip/pkg/config"
	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/history"

	"github.com/spf13/cobra"
)

type CommandBuilder struct {
	cmd *cobra.Command
}

func NewCommand(name, short, long string) *CommandBuilder {
	return &CommandBuilder{
		cmd: &cobra.Command{
			Use:     name,
			Short:   short,
			Long:    long,
			Example: "",
		},
	}
}

func (b *CommandBuilder) WithExample(example string) *CommandBuilder {
	b.cmd.Example = example
	return b
}

func (b *CommandBuilder) WithAliases(aliases ...string) *CommandBuilder {
	b.cmd.Aliases = aliases
	return b
}

// WithConfig runs fn with the configuration loaded for the active profile.
func (b *CommandBuilder) WithConfig(fn func(*cobra.Command, []string, *config.Config) error) *CommandBuilder {
	b.cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return fn(cmd, args, cfg)
	}
	return b
}

// WithHistory runs fn with the history store opened and closes it after.
func (b *CommandBuilder) WithHistory(fn func(*cobra.Command, []string, *history.Store) error) *CommandBuilder {
	return b.WithConfig(func(cmd *cobra.Command, args []string, cfg *config.Config) error {
		store, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, args, store)
	})
}

func (b *CommandBuilder) WithArgsValidation(minArgs int) *CommandBuilder {
	b.cmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) < minArgs {
			return errors.ValidationError(fmt.Sprintf("requires at least %d argument(s)", minArgs))
		}
		return nil
	}
	return b
}

func (b *CommandBuilder) WithExactArgs(n int) *CommandBuilder {
	b.cmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.ValidationError(fmt.Sprintf("accepts %d argument(s), received %d", n, len(args)))
		}
		return nil
	}
	return b
}

func (b *CommandBuilder) Build() *cobra.Command {
	return b.cmd
}

// openHistory opens the configured history database.
var openHistory = func(cfg *config.Config) (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, errors.HistoryError(err)
	}
	return history.Open(path)
}
