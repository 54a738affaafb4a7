package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quillnote/quill/internal/assistant"
	"github.com/quillnote/quill/internal/config"
	"github.com/quillnote/quill/internal/log"
)

var transformArg string

var transformCmd = &cobra.Command{
	Use:   "transform <command>",
	Short: "Apply a one-shot transformation to text from stdin",
	Long: `Apply a one-shot transformation to text read from stdin.

Run "quill transform list" to see available commands. Commands that
need an argument (translate, change-tone) take it via --arg.`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringVar(&transformArg, "arg", "",
		"command argument (target language, tone)")
	rootCmd.AddCommand(transformCmd)
}

func runTransform(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := log.New(log.Config{Level: logLevel(cfg)})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := assistant.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing assistant", "error", err)
		}
	}()

	if args[0] == "list" {
		for _, cmd := range a.Commands() {
			suffix := ""
			if cmd.NeedsArg {
				suffix = " (requires --arg)"
			}
			fmt.Printf("%-22s %s%s\n", cmd.Name, cmd.Description, suffix)
		}
		return nil
	}

	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	if len(text) == 0 {
		return errors.New("no input text on stdin")
	}

	_, err = a.RunCommand(ctx, args[0], string(text), transformArg, func(delta string) {
		fmt.Print(delta)
	})
	fmt.Println()
	return err
}
