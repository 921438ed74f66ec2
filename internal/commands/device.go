package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/soundleap/soundleap-cli/internal/api"
	"github.com/soundleap/soundleap-cli/internal/config"
	"github.com/soundleap/soundleap-cli/internal/protocol"
)

// Channel is the write side of a Ready connection. Send frames the
// payload; Write and WriteChunked put the bytes on the wire as given.
type Channel interface {
	Send(ctx context.Context, payload []byte, lineEnding bool) error
	Write(ctx context.Context, data []byte) error
	WriteChunked(ctx context.Context, data []byte, size int, delay time.Duration) error
}

// SendColors writes one colour round.
func SendColors(ctx context.Context, ch Channel, cfg config.BLEConfig, seq protocol.ColorSequence) error {
	if seq.Len() == 0 {
		return fmt.Errorf("no colours selected")
	}
	if err := ch.Send(ctx, seq.Payload(), cfg.LineEnding); err != nil {
		return fmt.Errorf("failed to send colours: %w", err)
	}
	return nil
}

// SendCommand writes a single command byte such as CancelGame.
func SendCommand(ctx context.Context, ch Channel, cfg config.BLEConfig, b byte) error {
	if err := ch.Send(ctx, []byte{b}, cfg.LineEnding); err != nil {
		return fmt.Errorf("failed to send command 0x%02X: %w", b, err)
	}
	return nil
}

// PadByte maps a 1-based mat number to its select byte.
func PadByte(n int) (byte, error) {
	switch n {
	case 1:
		return protocol.PadOne, nil
	case 2:
		return protocol.PadTwo, nil
	case 3:
		return protocol.PadThree, nil
	}
	return 0, fmt.Errorf("pad must be 1, 2 or 3, got %d", n)
}

// StartGame runs the start sequence: the start byte, the settings line,
// then the prepared game program in chunks. Each step waits for the
// configured delay so the hub can switch modes. None of these writes
// carry the device id or a line ending.
func StartGame(ctx context.Context, ch Channel, cfg config.BLEConfig, game *api.Game, settings []api.Setting, code []byte) error {
	if err := ch.Write(ctx, []byte{protocol.StartGame}); err != nil {
		return fmt.Errorf("failed to send start byte: %w", err)
	}
	if err := sleep(ctx, cfg.StartDelay); err != nil {
		return err
	}

	if err := ch.Write(ctx, api.EncodeSettings(game, settings)); err != nil {
		return fmt.Errorf("failed to send settings: %w", err)
	}
	if len(code) == 0 {
		return nil
	}
	if err := sleep(ctx, cfg.SettingsDelay); err != nil {
		return err
	}

	size := cfg.ChunkSize
	if size <= 0 {
		size = protocol.DefaultChunkSize
	}
	if err := ch.WriteChunked(ctx, api.PrepareGameCode(code), size, cfg.ChunkDelay); err != nil {
		return fmt.Errorf("failed to send game code: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
