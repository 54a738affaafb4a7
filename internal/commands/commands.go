// Package commands defines the one-shot text transformations the
// assistant offers over selected note text. Commands run outside the
// conversation chain: their output is shown but never enters model
// context or memory.
package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownCommand indicates the named command is not registered.
var ErrUnknownCommand = errors.New("unknown command")

// Temperatures pin command determinism: transformations should be
// repeatable, creative rewrites get slightly more freedom.
const (
	tempStrict   = 0.1
	tempCreative = 0.2
)

// Command is one registered transformation.
type Command struct {
	Name        string
	Description string
	Temperature float64

	// template contains {text} for the selected text and optionally
	// {arg} for the command argument (target language, tone).
	template string

	// NeedsArg marks commands that require an argument.
	NeedsArg bool
}

// Prompt renders the command's user prompt for the given text and
// argument.
func (c Command) Prompt(text, arg string) string {
	out := strings.ReplaceAll(c.template, "{arg}", arg)
	return strings.ReplaceAll(out, "{text}", text)
}

// Registry holds the available commands.
type Registry struct {
	cmds map[string]Command
}

// NewRegistry returns a registry with the built-in commands installed.
func NewRegistry() *Registry {
	r := &Registry{cmds: make(map[string]Command)}
	for _, cmd := range builtins {
		r.cmds[cmd.Name] = cmd
	}
	return r
}

// Get returns the named command.
func (r *Registry) Get(name string) (Command, error) {
	cmd, ok := r.cmds[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return cmd, nil
}

// List returns all commands sorted by name.
func (r *Registry) List() []Command {
	out := make([]Command, 0, len(r.cmds))
	for _, cmd := range r.cmds {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Custom builds an ad-hoc command from a free-form instruction.
func Custom(instruction string) Command {
	return Command{
		Name:        "custom",
		Description: "Apply a custom instruction to the selected text",
		Temperature: tempStrict,
		template:    instruction + ":\n\n{text}",
	}
}

var builtins = []Command{
	{
		Name:        "fix-grammar",
		Description: "Fix grammar and spelling",
		Temperature: tempStrict,
		template: "Please fix the grammar and spelling of the following text " +
			"and return it without any other changes:\n\n{text}",
	},
	{
		Name:        "summarize",
		Description: "Summarize into bullet points",
		Temperature: tempStrict,
		template:    "Please summarize the following text into bullet points and return it without any other changes:\n\n{text}",
	},
	{
		Name:        "toc",
		Description: "Generate a table of contents",
		Temperature: tempStrict,
		template:    "Please generate a table of contents for the following text and return it without any other changes:\n\n{text}",
	},
	{
		Name:        "glossary",
		Description: "Generate a glossary of terms",
		Temperature: tempStrict,
		template: "Please generate a glossary for the following text with the most important keywords " +
			"and their definitions, and return it without any other changes:\n\n{text}",
	},
	{
		Name:        "simplify",
		Description: "Simplify for a young reader",
		Temperature: tempStrict,
		template: "Please simplify the following text so that a 6th grader can understand it, " +
			"and return it without any other changes:\n\n{text}",
	},
	{
		Name:        "emojify",
		Description: "Sprinkle in fitting emojis",
		Temperature: tempStrict,
		template: "Please insert emojis to the following text without changing the words. " +
			"Insert at as many places as possible, but don't have any 2 emojis together:\n\n{text}",
	},
	{
		Name:        "remove-urls",
		Description: "Strip all URLs",
		Temperature: tempStrict,
		template: "Please remove all URLs from the following text and " +
			"return it without any other changes:\n\n{text}",
	},
	{
		Name:        "rewrite-tweet",
		Description: "Rewrite as a tweet",
		Temperature: tempCreative,
		template: "Please rewrite the following text to under 280 characters using simple sentences, " +
			"and return it without any other changes:\n\n{text}",
	},
	{
		Name:        "rewrite-tweet-thread",
		Description: "Rewrite as a tweet thread",
		Temperature: tempCreative,
		template: "Please rewrite the following text into a thread of multiple tweets, each under 280 " +
			"characters, numbered and separated by blank lines:\n\n{text}",
	},
	{
		Name:        "make-shorter",
		Description: "Cut the length in half",
		Temperature: tempStrict,
		template:    "Please rewrite the following text to make it half as long while keeping the meaning:\n\n{text}",
	},
	{
		Name:        "make-longer",
		Description: "Double the length",
		Temperature: tempStrict,
		template:    "Please rewrite the following text to make it twice as long while keeping the meaning:\n\n{text}",
	},
	{
		Name:        "eli5",
		Description: "Explain like I'm five",
		Temperature: tempStrict,
		template:    "Please explain the following text like I'm 5 years old:\n\n{text}",
	},
	{
		Name:        "press-release",
		Description: "Rewrite as a press release",
		Temperature: tempStrict,
		template:    "Please rewrite the following text as a formal press release:\n\n{text}",
	},
	{
		Name:        "translate",
		Description: "Translate into a language",
		Temperature: tempStrict,
		NeedsArg:    true,
		template:    "Please translate the following text into {arg}:\n\n{text}",
	},
	{
		Name:        "change-tone",
		Description: "Rewrite in a different tone",
		Temperature: tempStrict,
		NeedsArg:    true,
		template:    "Please rewrite the following text in a {arg} tone:\n\n{text}",
	},
}
