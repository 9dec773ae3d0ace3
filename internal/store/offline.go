package store

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/matheus3301/hangouts/internal/hangout"
)

// OfflineEntry is a command persisted while the connection was not open. It is
// replayed verbatim and removed once the server acknowledges it.
type OfflineEntry struct {
	ID      string          `json:"id"`
	Command hangout.Command `json:"command"`
}

// NewOfflineEntry wraps cmd with a fresh entry ID.
func NewOfflineEntry(cmd hangout.Command) OfflineEntry {
	return OfflineEntry{ID: uuid.New().String(), Command: cmd}
}

var offlineKinds = []Kind{KindOfflineHangouts, KindOfflineMessages}

func offlineKind(cmd hangout.State) Kind {
	if cmd == hangout.Messanger {
		return KindOfflineMessages
	}
	return KindOfflineHangouts
}

// OrderQueue returns entries in replay order: relationship commands first,
// then messages, each in insertion order.
func OrderQueue(entries []OfflineEntry) []OfflineEntry {
	out := make([]OfflineEntry, 0, len(entries))
	for _, kind := range offlineKinds {
		for _, e := range entries {
			if offlineKind(e.Command.Command) == kind {
				out = append(out, e)
			}
		}
	}
	return out
}

// WithoutCommand returns a copy of entries without those addressed to peer
// with the given command timestamp, and how many were dropped.
func WithoutCommand(entries []OfflineEntry, peer string, timestamp int64) ([]OfflineEntry, int) {
	kept := make([]OfflineEntry, 0, len(entries))
	for _, e := range entries {
		if e.Command.Username == peer && e.Command.Timestamp == timestamp {
			continue
		}
		kept = append(kept, e)
	}
	return kept, len(entries) - len(kept)
}

// Enqueue appends cmd to the owner's offline queue. Message commands and
// relationship commands are kept in separate queues.
func (db *DB) Enqueue(owner string, cmd hangout.Command) (OfflineEntry, error) {
	entry := NewOfflineEntry(cmd)
	if err := db.AppendOffline(owner, entry); err != nil {
		return OfflineEntry{}, err
	}
	return entry, nil
}

// AppendOffline appends a prepared entry to the owner's offline queue.
func (db *DB) AppendOffline(owner string, entry OfflineEntry) error {
	k := Key{Owner: owner, Kind: offlineKind(entry.Command.Command)}
	_, err := update(db, k, func(cur []OfflineEntry) []OfflineEntry {
		return append(cur, entry)
	})
	return err
}

// OfflineQueue returns every pending entry in replay order.
func (db *DB) OfflineQueue(owner string) ([]OfflineEntry, error) {
	all := []OfflineEntry{}
	for _, kind := range offlineKinds {
		var entries []OfflineEntry
		if _, err := db.Get(Key{Owner: owner, Kind: kind}, &entries); err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// PutOfflineQueue overwrites both offline queues with entries in one
// transaction.
func (db *DB) PutOfflineQueue(owner string, entries []OfflineEntry) error {
	byKind := map[Kind][]OfflineEntry{}
	for _, e := range OrderQueue(entries) {
		kind := offlineKind(e.Command.Command)
		byKind[kind] = append(byKind[kind], e)
	}
	return db.inTx(func(q querier) error {
		for _, kind := range offlineKinds {
			list := byKind[kind]
			if list == nil {
				list = []OfflineEntry{}
			}
			if err := set(q, Key{Owner: owner, Kind: kind}, list); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveOffline drops the entries addressed to peer with the given command
// timestamp from both queues in one transaction, and returns how many were
// removed.
func (db *DB) RemoveOffline(owner, peer string, timestamp int64) (int, error) {
	removed := 0
	err := db.inTx(func(q querier) error {
		for _, kind := range offlineKinds {
			k := Key{Owner: owner, Kind: kind}
			var entries []OfflineEntry
			found, err := get(q, k, &entries)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			kept, n := WithoutCommand(entries, peer, timestamp)
			if n == 0 {
				continue
			}
			if err := set(q, k, kept); err != nil {
				return err
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (db *DB) inTx(fn func(q querier) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
