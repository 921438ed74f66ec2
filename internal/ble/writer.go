package ble

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundleap/soundleap-cli/internal/protocol"
	"github.com/soundleap/soundleap-cli/internal/util"
)

// Writer transmits frames with write-without-response. There is no
// acknowledgment and no retry.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{logger: logger}
}

// Write sends frame on conn. Nothing is transmitted unless conn is Ready
// and its characteristic accepts unacknowledged writes.
func (w *Writer) Write(conn *ActiveConnection, frame protocol.Frame) error {
	return w.write(conn, frame, "write frame")
}

// WriteRaw sends data on conn as is, with no device id or separator.
// The game start sequence is written this way. The Ready check is the
// same as for Write.
func (w *Writer) WriteRaw(conn *ActiveConnection, data []byte) error {
	return w.write(conn, data, "write raw")
}

func (w *Writer) write(conn *ActiveConnection, data []byte, msg string) error {
	if conn == nil || conn.State != StateReady {
		w.logger.Debug("write dropped", "reason", "not ready", "len", len(data))
		return ErrNotReady
	}
	if conn.Characteristic == nil || !conn.Characteristic.Capabilities().Has(CapWriteWithoutResponse) {
		w.logger.Debug("write dropped", "session", conn.ID, "reason", "no write-without-response")
		return ErrWriteRejected
	}

	if w.logger.Enabled(context.Background(), slog.LevelDebug) {
		w.logger.Debug(msg, "session", conn.ID, "len", len(data), "dump", util.HexDump(data))
	}

	n, err := conn.Characteristic.WriteWithoutResponse(data)
	if err != nil {
		return fmt.Errorf("write without response: %w", err)
	}
	if n != len(data) {
		w.logger.Warn("short write", "session", conn.ID, "wrote", n, "len", len(data))
	}
	return nil
}
