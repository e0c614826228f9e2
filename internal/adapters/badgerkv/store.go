// Package badgerkv provides the durable key-value tier on an embedded BadgerDB.
package badgerkv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
)

const gcInterval = 10 * time.Minute

// Store implements ports.KVStore with native per-entry TTLs.
type Store struct {
	db *badger.DB
}

var _ ports.KVStore = (*Store)(nil)

// Open opens (or creates) a store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	return open(opts)
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger store: open: %w: %v", domain.ErrCacheUnavailable, err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger store: get %s: %w: %v", key, domain.ErrCacheUnavailable, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("badger store: set %s: %w: %v", key, domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Serve runs value-log garbage collection until ctx is done. It satisfies
// suture.Service.
func (s *Store) Serve(ctx context.Context) error {
	log := logging.WithComponent("badger")
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				log.Warn().Err(err).Msg("value log gc failed")
			}
		}
	}
}

func (s *Store) String() string { return "badger-gc" }
