// Package session holds the console's authentication state.
package session

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/stockvoice-go/internal/telemetry/logger"
)

// BadgerStore persists the session in an embedded Badger database so it
// survives between runs of the console under the same profile.
type BadgerStore struct {
	db     *badger.DB
	sealer *Sealer
	logger logger.Logger
	closed atomic.Bool
}

var _ Store = (*BadgerStore)(nil)

// BadgerOption configures a BadgerStore.
type BadgerOption func(*BadgerStore)

// WithSealer encrypts the token at rest.
func WithSealer(s *Sealer) BadgerOption {
	return func(b *BadgerStore) {
		b.sealer = s
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) BadgerOption {
	return func(b *BadgerStore) {
		b.logger = l
	}
}

// OpenBadger opens (or creates) the durable store in dir.
func OpenBadger(dir string, opts ...BadgerOption) (*BadgerStore, error) {
	if dir == "" {
		return nil, errors.New("session: badger dir is required")
	}

	store := &BadgerStore{logger: logger.Default()}
	for _, opt := range opts {
		opt(store)
	}

	// The triple is a few hundred bytes; keep the footprint small and
	// fsync every write so an established session survives a crash.
	// The value threshold must stay below the batch size a small
	// memtable allows.
	bopts := badger.DefaultOptions(dir).
		WithLogger(&badgerLogger{logger: store.logger}).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1).
		WithMemTableSize(4 << 20).
		WithValueThreshold(1 << 10).
		WithBlockCacheSize(4 << 20).
		WithValueLogFileSize(16 << 20)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("session: open badger: %w", err)
	}
	store.db = db

	store.logger.Debug("session store opened", "dir", dir, "sealed", store.sealer != nil)
	return store, nil
}

// Establish implements Store. All three keys are written in one transaction.
func (b *BadgerStore) Establish(s Session) error {
	if !s.Complete() {
		return ErrIncomplete
	}
	if b.closed.Load() {
		return ErrClosed
	}

	token := []byte(s.Token)
	if b.sealer != nil {
		sealed, err := b.sealer.Seal(KeyToken, token)
		if err != nil {
			return err
		}
		token = sealed
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(KeyToken), token); err != nil {
			return err
		}
		if err := txn.Set([]byte(KeyUserID), []byte(s.UserID)); err != nil {
			return err
		}
		return txn.Set([]byte(KeyUserEmail), []byte(s.UserEmail))
	})
	if err != nil {
		return fmt.Errorf("session: establish: %w", err)
	}
	return nil
}

// Clear implements Store. Deleting absent keys is not an error.
func (b *BadgerStore) Clear() error {
	if b.closed.Load() {
		return ErrClosed
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		for _, key := range []string{KeyToken, KeyUserID, KeyUserEmail} {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Read implements Store.
func (b *BadgerStore) Read() (Session, bool) {
	if b.closed.Load() {
		return Session{}, false
	}

	fields := make(map[string]string, 3)
	err := b.db.View(func(txn *badger.Txn) error {
		for _, key := range []string{KeyToken, KeyUserID, KeyUserEmail} {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			fields[key] = string(value)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			b.logger.Warn("session store read failed", "error", err)
		}
		return Session{}, false
	}

	if b.sealer != nil {
		token, err := b.sealer.Open(KeyToken, []byte(fields[KeyToken]))
		if err != nil {
			b.logger.Warn("stored token cannot be unsealed", "error", err)
			return Session{}, false
		}
		fields[KeyToken] = string(token)
	}

	return fromFields(fields)
}

// Close releases the database. Further reads report absent.
func (b *BadgerStore) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("session: close badger: %w", err)
	}
	return nil
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
// Badger's informational chatter is demoted to debug.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
