package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind names a logical value stored for an owner.
type Kind string

const (
	KindHangouts        Kind = "hangouts"
	KindMessages        Kind = "messages"
	KindOfflineHangouts Kind = "offline_hangouts"
	KindOfflineMessages Kind = "offline_messages"
	KindUnreadHangouts  Kind = "unread_hangouts"
)

// Key addresses one stored value. Peer is empty for values that are not
// per-peer.
type Key struct {
	Owner string
	Kind  Kind
	Peer  string
}

func (k Key) String() string {
	if k.Peer == "" {
		return k.Owner + "/" + string(k.Kind)
	}
	return k.Owner + "/" + string(k.Kind) + "/" + k.Peer
}

// HangoutsKey addresses the owner's hangout list.
func HangoutsKey(owner string) Key { return Key{Owner: owner, Kind: KindHangouts} }

// MessagesKey addresses the message list of one peer conversation.
func MessagesKey(owner, peer string) Key {
	return Key{Owner: owner, Kind: KindMessages, Peer: peer}
}

// UnreadKey addresses the owner's unread badge list.
func UnreadKey(owner string) Key { return Key{Owner: owner, Kind: KindUnreadHangouts} }

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

// Get decodes the value at k into dst. Missing values report found=false and
// leave dst untouched.
func (db *DB) Get(k Key, dst any) (bool, error) {
	return get(db.DB, k, dst)
}

// Set encodes v and stores it at k, replacing any previous value.
func (db *DB) Set(k Key, v any) error {
	return set(db.DB, k, v)
}

// Clear removes every value stored for owner.
func (db *DB) Clear(owner string) error {
	if _, err := db.Exec(`DELETE FROM entries WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("clear %q: %w", owner, err)
	}
	return nil
}

func get(q querier, k Key, dst any) (bool, error) {
	var raw []byte
	err := q.QueryRow(`SELECT value FROM entries WHERE owner = ? AND kind = ? AND peer = ?`,
		k.Owner, string(k.Kind), k.Peer).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", k, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", k, err)
	}
	return true, nil
}

func set(q querier, k Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	_, err = q.Exec(`
		INSERT INTO entries (owner, kind, peer, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner, kind, peer) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		k.Owner, string(k.Kind), k.Peer, raw, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set %s: %w", k, err)
	}
	return nil
}

// update reads the value at k, applies fn and writes the result back in one
// transaction. Missing values reach fn as the zero value of T.
func update[T any](db *DB, k Key, fn func(T) T) (T, error) {
	var zero T
	tx, err := db.Begin()
	if err != nil {
		return zero, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var cur T
	if _, err := get(tx, k, &cur); err != nil {
		return zero, err
	}
	next := fn(cur)
	if err := set(tx, k, next); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit %s: %w", k, err)
	}
	return next, nil
}
