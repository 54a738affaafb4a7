package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillnote/quill/internal/config"
	"github.com/quillnote/quill/internal/log"
	"github.com/quillnote/quill/internal/notes"
)

var tagsCmd = &cobra.Command{
	Use:   "tags [tag...]",
	Short: "List tags, or the notes carrying the given tags",
	RunE:  runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store := notes.NewStore(cfg.NotesDir, log.New(log.Config{Level: logLevel(cfg)}))

	if len(args) == 0 {
		tags, err := store.AllTags()
		if err != nil {
			return err
		}
		for _, tag := range tags {
			fmt.Printf("#%s\n", tag)
		}
		return nil
	}

	matched, err := store.NotesByTags(args)
	if err != nil {
		return err
	}
	for _, note := range matched {
		fmt.Printf("%s\t%s\n", note.Path, note.Title)
	}
	return nil
}
