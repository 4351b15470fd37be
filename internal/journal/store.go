// internal/journal/store.go
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	errs "modgen/internal/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const runPrefix = "run:"

// Run records one generated manifest.
type Run struct {
	ID         string    `json:"id"`
	Module     string    `json:"module"`
	ModuleDir  string    `json:"module_dir"`
	TargetDir  string    `json:"target_dir"`
	Entries    int       `json:"entries"`
	Globs      int       `json:"globs"`
	CreatedAt  time.Time `json:"created_at"`
	Compressed bool      `json:"compressed"`
	Body       []byte    `json:"body"`
}

// Store keeps runs in badger, bodies zstd compressed.
type Store struct {
	db    *badger.DB
	codec *codec
	owned bool
}

// Open opens the journal database at path. An empty path keeps the journal in memory.
func Open(path string, opts CompressionOptions) (*Store, error) {
	dbOpts := badger.DefaultOptions(path).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	if path == "" {
		dbOpts = dbOpts.WithInMemory(true)
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	s, err := NewStore(db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewStore wraps an already open database. Close leaves it open.
func NewStore(db *badger.DB, opts CompressionOptions) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	c, err := newCodec(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, codec: c}, nil
}

func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Record stores manifest under a new run. ID and CreatedAt are filled in when empty.
func (s *Store) Record(run *Run, manifest []byte) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Body, run.Compressed = s.codec.compress(manifest)

	data, err := json.Marshal(run)
	if err != nil {
		return errs.Internal("marshaling run", err)
	}

	key := []byte(runPrefix + run.ID)
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("run already exists: %s", run.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return txn.Set(key, data)
	})
}

func (s *Store) Get(id string) (*Run, error) {
	var run Run
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(runPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &run)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errs.NotFound(fmt.Sprintf("run not found: %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", id, err)
	}
	return &run, nil
}

// Manifest returns the uncompressed manifest of run.
func (s *Store) Manifest(run *Run) ([]byte, error) {
	if !run.Compressed {
		return run.Body, nil
	}
	body, err := s.codec.decompress(run.Body)
	if err != nil {
		return nil, errs.Internal(fmt.Sprintf("decompressing manifest of run %s", run.ID), err)
	}
	return body, nil
}

// List returns every run, newest first.
func (s *Store) List() ([]*Run, error) {
	var runs []*Run
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var run Run
				if err := json.Unmarshal(val, &run); err != nil {
					return err
				}
				runs = append(runs, &run)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// Latest returns the newest run recorded for moduleDir.
func (s *Store) Latest(moduleDir string) (*Run, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		if run.ModuleDir == moduleDir {
			return run, nil
		}
	}
	return nil, errs.NotFound(fmt.Sprintf("no run recorded for %s", moduleDir))
}

// Find resolves a full run id or an unambiguous prefix of one.
func (s *Store) Find(prefix string) (*Run, error) {
	if prefix == "" {
		return nil, errs.ValidationError("run id cannot be empty", nil)
	}
	if run, err := s.Get(prefix); err == nil {
		return run, nil
	} else if !errs.IsType(err, errs.ErrorTypeNotFound) {
		return nil, err
	}

	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	var match *Run
	for _, run := range runs {
		if !strings.HasPrefix(run.ID, prefix) {
			continue
		}
		if match != nil {
			return nil, errs.ValidationError(fmt.Sprintf("run id %q is ambiguous", prefix), nil)
		}
		match = run
	}
	if match == nil {
		return nil, errs.NotFound(fmt.Sprintf("run not found: %s", prefix))
	}
	return match, nil
}
