package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"pokewatch/internal/types"
)

const fileVersion = 1

// fileFormat is the persisted form of a snapshot.
type fileFormat struct {
	Version int                    `json:"version"`
	SavedAt time.Time              `json:"saved_at"`
	Weather map[uint64]CellWeather `json:"weather"`
	Gyms    map[string]Gym         `json:"gyms"`
}

// FileStore persists snapshots as zstd-compressed JSON.
type FileStore struct {
	path   string
	clock  types.Clock
	logger types.Logger
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string, clock types.Clock, logger types.Logger) *FileStore {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &FileStore{path: path, clock: clock, logger: logger}
}

// Path returns the snapshot file path.
func (f *FileStore) Path() string { return f.path }

// Save writes s to a temporary file and renames it over the snapshot file so
// a crash never leaves a truncated snapshot behind.
func (f *FileStore) Save(s *Snapshot) error {
	doc := fileFormat{
		Version: fileVersion,
		SavedAt: f.clock.Now(),
		Weather: map[uint64]CellWeather{},
		Gyms:    map[string]Gym{},
	}
	if s != nil {
		doc.Weather = s.weather
		doc.Gyms = s.gyms
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return types.NewAppError(types.ErrCodeCacheWrite, "cannot create cache directory", err)
	}

	tmp := f.path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return types.NewAppError(types.ErrCodeCacheWrite, "cannot create cache file", err)
	}
	if err := writeCompressed(out, doc); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return types.NewAppError(types.ErrCodeCacheWrite, "cannot write cache file", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return types.NewAppError(types.ErrCodeCacheWrite, "cannot close cache file", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return types.NewAppError(types.ErrCodeCacheWrite, "cannot replace cache file", err)
	}

	cells, gyms := s.Len()
	f.logger.Debug("cache saved", "path", f.path, "cells", cells, "gyms", gyms)
	return nil
}

func writeCompressed(out *os.File, doc fileFormat) error {
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd encoder: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(doc); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush zstd: %w", err)
	}
	return out.Sync()
}

// Load reads the snapshot file. A missing file yields an empty snapshot.
func (f *FileStore) Load() (*Snapshot, error) {
	// leftover from an interrupted save
	_ = os.Remove(f.path + ".tmp")

	in, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.Info("no cache file, starting empty", "path", f.path)
		return &Snapshot{weather: map[uint64]CellWeather{}, gyms: map[string]Gym{}}, nil
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeCacheRead, "cannot open cache file", err)
	}
	defer in.Close()

	dec, err := zstd.NewReader(in, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeCacheRead, "cannot start zstd decoder", err)
	}
	defer dec.Close()

	var doc fileFormat
	if err := json.NewDecoder(dec).Decode(&doc); err != nil {
		return nil, types.NewAppError(types.ErrCodeCacheRead, "cannot decode cache file", err)
	}
	if doc.Version != fileVersion {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeCacheRead, "unsupported cache file version", nil,
			map[string]any{"version": doc.Version})
	}

	s := &Snapshot{weather: doc.Weather, gyms: doc.Gyms}
	if s.weather == nil {
		s.weather = map[uint64]CellWeather{}
	}
	if s.gyms == nil {
		s.gyms = map[string]Gym{}
	}
	cells, gyms := s.Len()
	f.logger.Info("cache loaded", "path", f.path, "cells", cells, "gyms", gyms, "saved_at", doc.SavedAt)
	return s, nil
}
