// Package cmd wires the quill CLI. Following the pattern used by
// kubectl, hugo, and other standard Go CLI tools, all application
// logic lives here and main.go stays a minimal entry point.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Quill - chat with your notes",
	Long: `Quill is a conversational assistant for your note collection.

It answers questions directly, or grounds its answers in a note of your
choosing, and offers one-shot transformations over selected text.

Running quill without arguments starts an interactive chat session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
