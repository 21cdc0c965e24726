package file

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// store handles raw JSON document IO for a single entity kind.
type store struct {
	dir string
}

func newStore(root, kind string) *store {
	return &store{dir: filepath.Join(root, kind)}
}

func (s *store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *store) read(id string, out any) (bool, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", s.path(id), err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", s.path(id), err)
	}

	return true, nil
}

func (s *store) write(id string, in any) error {
	err := os.MkdirAll(s.dir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", id, err)
	}

	err = os.WriteFile(s.path(id), data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path(id), err)
	}

	return nil
}

func (s *store) delete(id string) (bool, error) {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", s.path(id), err)
	}

	return true, nil
}

// ids lists the IDs of every stored document, in file-name order.
func (s *store) ids() ([]string, error) {
	root := os.DirFS(s.dir)

	files, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	ids := make([]string, 0, len(files))
	for _, file := range files {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	return ids, nil
}
