package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Asker answers a single question.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// REPL is an interactive question loop for the FAQ assistant.
type REPL struct {
	asker    Asker
	renderer *Renderer
	out      io.Writer
}

func NewREPL(asker Asker, renderer *Renderer) *REPL {
	return &REPL{asker: asker, renderer: renderer}
}

// Run reads questions until EOF, "exit" or ctx cancellation.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ask> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	r.out = rl.Stdout()

	fmt.Fprintln(r.out, "Ask anything about SoundLeap. Type 'exit' to quit.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil
		}
		if r.handle(ctx, line) {
			return nil
		}
	}
}

// handle processes one input line and reports whether to quit.
func (r *REPL) handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	switch strings.ToLower(input) {
	case "":
		return false
	case "exit", "quit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(r.out, "Type a question and press enter. 'exit' leaves.")
		return false
	}

	answer, err := r.asker.Ask(ctx, input)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return false
	}
	fmt.Fprint(r.out, r.renderer.Render(answer))
	return false
}
