package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quillnote/quill/internal/assistant"
	"github.com/quillnote/quill/internal/chain"
	"github.com/quillnote/quill/internal/config"
	"github.com/quillnote/quill/internal/conversation"
	"github.com/quillnote/quill/internal/log"
	"github.com/quillnote/quill/internal/notes"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
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

	store := notes.NewStore(cfg.NotesDir, logger)

	fmt.Printf("Quill %s — model: %s\n", AppVersion, a.ActiveModel().DisplayName)
	fmt.Println("Type /help for commands, Ctrl+D to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye.")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleSlashCommand(ctx, a, store, input) {
				break
			}
			continue
		}

		sendAndPrint(ctx, a, input)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// sendAndPrint streams one chat turn to stdout. Ctrl+C cancels the
// stream without ending the session.
func sendAndPrint(ctx context.Context, a *assistant.Assistant, input string) {
	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	fmt.Print("assistant: ")
	_, err := a.SendMessage(runCtx, input, func(delta string) {
		fmt.Print(delta)
	})
	fmt.Println()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("(interrupted)")
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

// handleSlashCommand dispatches a /command. Returns true to exit.
func handleSlashCommand(ctx context.Context, a *assistant.Assistant, store *notes.Store, input string) bool {
	fields := strings.Fields(input)
	name, args := fields[0], fields[1:]

	switch name {
	case "/exit", "/quit":
		fmt.Println("Goodbye.")
		return true

	case "/help":
		printChatHelp()

	case "/model":
		if len(args) == 0 {
			fmt.Printf("active: %s\navailable: %s\n",
				a.ActiveModel().DisplayName, strings.Join(a.Models(), ", "))
			break
		}
		target := strings.Join(args, " ")
		if err := a.SwitchModel(ctx, target); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			break
		}
		fmt.Printf("switched to %s\n", target)

	case "/mode":
		if len(args) == 0 {
			fmt.Printf("mode: %s\n", a.Strategy())
			break
		}
		var kind chain.Kind
		switch args[0] {
		case "chat":
			kind = chain.KindDirectChat
		case "qa":
			kind = chain.KindRetrievalQA
		default:
			fmt.Fprintln(os.Stderr, "usage: /mode chat|qa")
			break
		}
		if kind != chain.KindUninitialized {
			if err := a.SwitchStrategy(ctx, kind); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				break
			}
			fmt.Printf("mode: %s\n", a.Strategy())
		}

	case "/note":
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "usage: /note <path>")
			break
		}
		note, err := store.Get(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			break
		}
		if err := a.SetActiveDocument(ctx, note.Content); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			break
		}
		fmt.Printf("active note: %s\n", note.Title)

	case "/index":
		if err := a.RebuildIndex(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			break
		}
		fmt.Println("index rebuilt")

	case "/new":
		a.NewConversation()
		fmt.Println("new conversation")

	case "/edit":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: /edit <n> <new text>")
			break
		}
		editAndPrint(ctx, a, args[0], strings.Join(args[1:], " "))

	case "/tokens":
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "usage: /tokens <text>")
			break
		}
		n, err := a.CountTokens(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			break
		}
		fmt.Printf("~%d tokens\n", n)

	case "/history":
		for i, msg := range userMessages(a) {
			fmt.Printf("%d: %s\n", i+1, firstLine(msg.Text))
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command %s, try /help\n", name)
	}
	return false
}

// editAndPrint rewrites the nth user message and streams the
// regenerated response.
func editAndPrint(ctx context.Context, a *assistant.Assistant, nth, newText string) {
	n, err := strconv.Atoi(nth)
	if err != nil || n < 1 {
		fmt.Fprintln(os.Stderr, "usage: /edit <n> <new text>")
		return
	}

	users := userMessages(a)
	if n > len(users) {
		fmt.Fprintf(os.Stderr, "error: only %d user messages\n", len(users))
		return
	}

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	fmt.Print("assistant: ")
	_, err = a.EditMessage(runCtx, users[n-1].ID, newText, func(delta string) {
		fmt.Print(delta)
	})
	fmt.Println()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func userMessages(a *assistant.Assistant) []conversation.Message {
	var out []conversation.Message
	for _, msg := range a.Transcript() {
		if msg.Sender == conversation.SenderUser && msg.Visible {
			out = append(out, msg)
		}
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func printChatHelp() {
	fmt.Print(`Commands:
  /model [name]      show or switch the active model
  /mode [chat|qa]    show or switch the strategy
  /note <path>       set the active note for qa mode
  /index             rebuild the active note's index
  /new               start a new conversation
  /edit <n> <text>   rewrite your nth message and regenerate
  /history           list your messages with their numbers
  /tokens <text>     estimate token cost on the active model
  /exit              quit
`)
}

func logLevel(cfg *config.Config) slog.Level {
	if cfg.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
