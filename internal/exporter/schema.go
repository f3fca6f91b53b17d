package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/matrix"
)

// WriteSchema writes the matrix descriptor as indented JSON.
func WriteSchema(path string, d matrix.Descriptor) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadSchema loads a descriptor written by WriteSchema.
func ReadSchema(path string) (matrix.Descriptor, error) {
	var d matrix.Descriptor
	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, apperrors.NewParsingError("invalid schema "+filepath.Base(path), err)
	}
	return d, nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}
