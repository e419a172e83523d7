// SPDX-License-Identifier: MIT

// Package store persists fetched transcripts and reports in an embedded
// Badger database so saved fetches survive restarts and can be served
// again without touching YouTube.
//
// Keys:
//   - transcripts: "tr:<videoID>:<languageCode>" (JSON)
//   - reports:     "rep:<recordID>" (JSON)
//
// Both key spaces carry an optional TTL so old payloads age out on their
// own.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ExponentialDS/vid-text/internal/report"
	"github.com/ExponentialDS/vid-text/internal/transcript"
)

// ErrNotFound is returned when a key is absent or its TTL has elapsed.
var ErrNotFound = errors.New("store: not found")

const (
	transcriptPrefix = "tr:"
	reportPrefix     = "rep:"
)

// Store is a Badger-backed content store.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database. Safe to call once.
func (s *Store) Close() error { return s.db.Close() }

func transcriptKey(videoID, languageCode string) []byte {
	return []byte(transcriptPrefix + videoID + ":" + languageCode)
}

func reportKey(id string) []byte {
	return []byte(reportPrefix + id)
}

// PutTranscript stores t under its video ID and language code. A zero ttl
// stores the transcript without expiry.
func (s *Store) PutTranscript(ctx context.Context, t *transcript.Transcript, ttl time.Duration) error {
	buf, err := json.Marshal(t)
	if err != nil {
		return err
	}
	key := transcriptKey(t.VideoID, t.LanguageCode)
	return s.db.Update(func(txn *badger.Txn) error {
		if ttl > 0 {
			return txn.SetEntry(badger.NewEntry(key, buf).WithTTL(ttl))
		}
		return txn.Set(key, buf)
	})
}

// GetTranscript loads a stored transcript.
func (s *Store) GetTranscript(ctx context.Context, videoID, languageCode string) (*transcript.Transcript, error) {
	var out transcript.Transcript
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(transcriptKey(videoID, languageCode))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// DeleteTranscript removes a stored transcript. Deleting an absent key is
// not an error.
func (s *Store) DeleteTranscript(ctx context.Context, videoID, languageCode string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(transcriptKey(videoID, languageCode))
	})
}

// PutReport stores a report under the fetch record ID.
func (s *Store) PutReport(ctx context.Context, id string, r *report.Report, ttl time.Duration) error {
	buf, err := json.Marshal(r)
	if err != nil {
		return err
	}
	key := reportKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		if ttl > 0 {
			return txn.SetEntry(badger.NewEntry(key, buf).WithTTL(ttl))
		}
		return txn.Set(key, buf)
	})
}

// GetReport loads a stored report.
func (s *Store) GetReport(ctx context.Context, id string) (*report.Report, error) {
	var out report.Report
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(reportKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// DeleteReport removes a stored report.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(reportKey(id))
	})
}

// CountTranscripts reports the number of stored transcripts.
func (s *Store) CountTranscripts(ctx context.Context) (int, error) {
	prefix := []byte(transcriptPrefix)
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// HealthCheck verifies the database is open and readable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// RunGC triggers one round of Badger value-log garbage collection. The
// daemon calls this periodically; badger.ErrNoRewrite just means there
// was nothing to collect.
func (s *Store) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return err
	}
	return nil
}
