package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/soundleap/soundleap-cli/internal/protocol"
)

const deviceIDFile = "device-id"

// LoadDeviceID returns this controller's stable identity from dataDir,
// generating and persisting a new UUID on first use.
func LoadDeviceID(dataDir string) (protocol.DeviceID, error) {
	path := filepath.Join(dataDir, deviceIDFile)

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, perr := uuid.Parse(id); perr != nil {
			return nil, fmt.Errorf("corrupt device id in %s: %w", path, perr)
		}
		return protocol.NewDeviceID(id), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read device id: %w", err)
	}

	return ResetDeviceID(dataDir)
}

// ResetDeviceID replaces the stored identity with a fresh UUID.
func ResetDeviceID(dataDir string) (protocol.DeviceID, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	id := strings.ToUpper(uuid.New().String())
	if err := os.WriteFile(filepath.Join(dataDir, deviceIDFile), []byte(id+"\n"), 0600); err != nil {
		return nil, fmt.Errorf("write device id: %w", err)
	}
	return protocol.NewDeviceID(id), nil
}
