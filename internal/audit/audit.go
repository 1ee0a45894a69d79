package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// Archiver writes batches of audit events to JSON files before retention
// cleanup removes them from the database.
type Archiver struct {
	Dir string
}

func NewArchiver(dir string) *Archiver {
	return &Archiver{
		Dir: dir,
	}
}

// SaveJSON saves the provided data as JSON to a file with a UUID4 filename.
func (a *Archiver) SaveJSON(data any) (string, error) {
	if err := a.ensureDir(); err != nil {
		return "", fmt.Errorf("failed to ensure archive directory: %w", err)
	}

	filename := fmt.Sprintf("%s.json", uuid.New().String())
	path := filepath.Join(a.Dir, filename)

	log.Info("Saving audit archive", "path", path)

	jsonData, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}

	return filename, nil
}

func (a *Archiver) ensureDir() error {
	if _, err := os.Stat(a.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	return nil
}
