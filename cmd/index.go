package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quillnote/quill/internal/backend"
	"github.com/quillnote/quill/internal/config"
	"github.com/quillnote/quill/internal/log"
	"github.com/quillnote/quill/internal/notes"
	"github.com/quillnote/quill/internal/vectordb"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index <note-path>",
	Short: "Build the vector index for a note",
	Long: `Build (or reuse) the vector index for one note.

The index is keyed by the note's content, so an unchanged note is a
no-op and an edited note gets a fresh index automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false,
		"discard any existing index and re-embed")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := log.New(log.Config{Level: logLevel(cfg)})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := backend.InitGenkit(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing model runtime: %w", err)
	}

	store := notes.NewStore(cfg.NotesDir, logger)
	note, err := store.Get(args[0])
	if err != nil {
		return err
	}

	cache := vectordb.NewCache(cfg.IndexDir, backend.Embedder(g, cfg), cfg.ChunkSize, logger)
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("closing index cache", "error", err)
		}
	}()
	if issue := cache.PersistenceIssue(); issue != nil {
		fmt.Printf("warning: %v (index will not persist)\n", issue)
	}

	entry, err := cache.Build(ctx, note.Content, indexForce)
	if err != nil {
		return err
	}

	fmt.Printf("indexed %s: %d chunks (key %s)\n", note.Title, entry.Len(), entry.Hash[:12])
	return nil
}
