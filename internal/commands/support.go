package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/soundleap/soundleap-cli/internal/chat"
)

// Ask sends one question to the assistant and renders the answer.
func Ask(ctx context.Context, w io.Writer, asker chat.Asker, renderer *chat.Renderer, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("empty question")
	}

	answer, err := asker.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("assistant: %w", err)
	}
	fmt.Fprint(w, renderer.Render(answer))
	return nil
}

// Chat runs the interactive assistant loop.
func Chat(ctx context.Context, asker chat.Asker, renderer *chat.Renderer) error {
	return chat.NewREPL(asker, renderer).Run(ctx)
}
