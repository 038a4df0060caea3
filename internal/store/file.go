package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jimezsa/jobcollector/internal/models"
)

// FileStore keeps the corpus as one pretty-printed JSON document.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the corpus. A missing or empty file is an empty corpus.
func (s *FileStore) Load(ctx context.Context) (Corpus, error) {
	if err := ctx.Err(); err != nil {
		return Corpus{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return emptyCorpus(), nil
		}
		return Corpus{}, fmt.Errorf("read corpus: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return emptyCorpus(), nil
	}

	var corpus Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return Corpus{}, fmt.Errorf("decode corpus %s: %w", s.path, err)
	}
	if corpus.Jobs == nil {
		corpus.Jobs = []models.Job{}
	}
	return corpus, nil
}

// Save overwrites the corpus file. The document is written to a temporary
// file first and renamed into place.
func (s *FileStore) Save(ctx context.Context, corpus Corpus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if corpus.Jobs == nil {
		corpus.Jobs = []models.Job{}
	}

	data, err := json.MarshalIndent(corpus, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	return writeFileAtomic(s.path, append(data, '\n'))
}

func (s *FileStore) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
