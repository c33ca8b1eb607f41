package stac

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile serializes a document to path atomically (temp file + rename in
// the target directory) so a failed write never leaves a partial document
// behind. Serialization is deterministic: struct fields keep declaration
// order and map keys are sorted by encoding/json.
func WriteFile(path string, doc any, pretty bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure directory for %s: %w", path, err)
	}

	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename %s: %w", path, err)
	}
	return nil
}
