package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// Save gob-encodes v to the file at path. The file is created, written and
// closed on every exit path. v must be gob-encodable: exported fields only.
func Save(v interface{}, path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	return SaveToWriter(v, file)
}

// Load gob-decodes the file at path into v.
func Load(v interface{}, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return LoadFromReader(v, file)
}

// SaveToWriter gob-encodes v to w.
func SaveToWriter(v interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// LoadFromReader gob-decodes from r into v.
func LoadFromReader(v interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}
	return nil
}
