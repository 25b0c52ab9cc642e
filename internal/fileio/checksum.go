package fileio

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

// Metadata describes a written document.
type Metadata struct {
	Location    string
	Size        int64
	Checksum    string
	StartedAt   time.Time
	CompletedAt time.Time
}

func (m *Metadata) Duration() time.Duration {
	return m.CompletedAt.Sub(m.StartedAt)
}

func BuildMetadata(path string, started time.Time) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file metadata: %w", err)
	}

	checksum, err := FileChecksum(path)
	if err != nil {
		return nil, err
	}

	return &Metadata{
		Location:    path,
		Size:        info.Size(),
		Checksum:    checksum,
		StartedAt:   started,
		CompletedAt: time.Now(),
	}, nil
}

func FileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
