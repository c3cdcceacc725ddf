package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/candidate"
)

const (
	candidatesDir = "candidates"
	profilesDir   = "profiles"
	jsonExt       = ".json"
)

// FileStore keeps one indented JSON file per document under a data
// directory: candidates/<id>.json and profiles/<email>.json.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	for _, sub := range []string{candidatesDir, profilesDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.dir, candidatesDir, id+jsonExt)
}

func (s *FileStore) profilePath(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(key)
	return filepath.Join(s.dir, profilesDir, safe+jsonExt)
}

func (s *FileStore) SaveRecord(_ context.Context, id string, rec *candidate.Record) error {
	if err := checkID(id); err != nil {
		return err
	}
	path := s.recordPath(id)
	if err := writeJSON(path, rec); err != nil {
		return fmt.Errorf("save record %s: %w", id, err)
	}
	s.logger.Debug("record saved", zap.String("id", id), zap.String("path", path))
	return nil
}

func (s *FileStore) LoadRecord(_ context.Context, id string) (*candidate.Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var rec candidate.Record
	if err := readJSON(s.recordPath(id), &rec); err != nil {
		return nil, fmt.Errorf("load record %s: %w", id, err)
	}
	return &rec, nil
}

func (s *FileStore) DeleteRecord(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.Remove(s.recordPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete record %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) ListRecords(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, candidatesDir))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != jsonExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), jsonExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) SaveProfile(_ context.Context, email string, p *candidate.Profile) error {
	key, err := profileKey(email)
	if err != nil {
		return err
	}
	if err := writeJSON(s.profilePath(key), p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *FileStore) LoadProfile(_ context.Context, email string) (*candidate.Profile, error) {
	key, err := profileKey(email)
	if err != nil {
		return nil, err
	}
	var p candidate.Profile
	if err := readJSON(s.profilePath(key), &p); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

func (s *FileStore) Close() error { return nil }

func writeJSON(path string, v any) error {
	return writeJSONTo(path, v, func(name string) (io.WriteCloser, error) {
		return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	})
}

// writeJSONTo encodes v into the file returned by open. A failed Close is
// reported when encoding succeeded.
func writeJSONTo(path string, v any, open func(string) (io.WriteCloser, error)) (err error) {
	file, err := open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() == 0 {
		return ErrNotFound
	}

	return json.NewDecoder(file).Decode(v)
}
