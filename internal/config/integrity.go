package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// sidecarSuffix names the checksum file written next to the config.
const sidecarSuffix = ".b3"

// ComputeHash computes the BLAKE3 hash of a file.
func ComputeHash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// Lock writes the sidecar checksum for the config file, authorizing its
// current contents.
func Lock(configPath string) error {
	hash, err := ComputeHash(configPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath+sidecarSuffix, []byte(hash+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write checksum: %w", err)
	}
	return nil
}

// VerifySidecar checks the config file against its sidecar checksum.
// A missing sidecar is not an error; integrity checking is opt-in.
func VerifySidecar(configPath string) error {
	want, err := os.ReadFile(configPath + sidecarSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read checksum: %w", err)
	}

	got, err := ComputeHash(configPath)
	if err != nil {
		return err
	}
	if got != strings.TrimSpace(string(want)) {
		return fmt.Errorf("config integrity check failed for %s: run 'packetline config lock' after intentional edits", configPath)
	}
	return nil
}
