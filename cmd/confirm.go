package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"rtfdclip/pkg/errors"

	"github.com/fatih/color"
)

const (
	responseYes = "yes"
	responseY   = "y"
)

// promptInput is where confirmation answers are read from.
var promptInput io.Reader = os.Stdin

// IsDryRun returns true if dry-run mode is enabled
func IsDryRun() bool {
	return dryRunFlag
}

// IsAssumeYes returns true if we should skip confirmation prompts
func IsAssumeYes() bool {
	return assumeYesFlag
}

// PrintDryRun prints a message indicating what would happen in dry-run mode
func PrintDryRun(format string, args ...interface{}) {
	yellow := color.New(color.FgYellow, color.Bold)
	_, _ = yellow.Print("[DRY-RUN] ")
	fmt.Printf(format+"\n", args...)
}

// PrintDryRunAction prints a dry-run action with details
func PrintDryRunAction(action string, details map[string]string) {
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan)

	_, _ = yellow.Printf("[DRY-RUN] Would %s:\n", action)
	for _, key := range sortedKeys(details) {
		_, _ = cyan.Printf("  %s: ", key)
		fmt.Println(details[key])
	}
}

// ConfirmPrompt asks the user for confirmation
func ConfirmPrompt(message string) (bool, error) {
	if assumeYesFlag {
		return true, nil
	}

	yellow := color.New(color.FgYellow)
	_, _ = yellow.Printf("%s [y/N]: ", message)

	reader := bufio.NewReader(promptInput)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == responseY || response == responseYes, nil
}

// ConfirmDestructive prompts for confirmation before a destructive action
func ConfirmDestructive(action string, details map[string]string) (bool, error) {
	if dryRunFlag {
		PrintDryRunAction(action, details)
		return false, nil // Return false to indicate we didn't actually do it
	}

	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Printf("Warning: You are about to %s\n\n", action)

	if len(details) > 0 {
		for _, key := range sortedKeys(details) {
			fmt.Printf("  %s: %s\n", key, details[key])
		}
		fmt.Println()
	}

	return ConfirmPrompt("Do you want to continue")
}

// RequireConfirmation returns a cancellation error if confirmation is
// denied. In dry-run mode it prints the action and returns errDryRun.
func RequireConfirmation(action string, details map[string]string) error {
	confirmed, err := ConfirmDestructive(action, details)
	if err != nil {
		return err
	}
	if dryRunFlag {
		return errDryRun
	}
	if !confirmed {
		return errors.CancelledError(action)
	}
	return nil
}

// errDryRun tells a destructive command to stop without reporting failure.
var errDryRun = fmt.Errorf("dry run")

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
