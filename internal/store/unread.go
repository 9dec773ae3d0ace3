package store

import "github.com/matheus3301/hangouts/internal/hangout"

// UnreadHangouts returns the unread badge list, one entry per unread arrival.
func (db *DB) UnreadHangouts(owner string) ([]hangout.Hangout, error) {
	list := []hangout.Hangout{}
	if _, err := db.Get(UnreadKey(owner), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []hangout.Hangout{}
	}
	return list, nil
}

// AppendUnread adds h to the unread badge list.
func (db *DB) AppendUnread(owner string, h hangout.Hangout) ([]hangout.Hangout, error) {
	return update(db, UnreadKey(owner), func(cur []hangout.Hangout) []hangout.Hangout {
		return append(cur, h)
	})
}

// RemoveUnread drops every unread entry for peer.
func (db *DB) RemoveUnread(owner, peer string) ([]hangout.Hangout, error) {
	return update(db, UnreadKey(owner), func(cur []hangout.Hangout) []hangout.Hangout {
		return hangout.WithoutPeer(cur, peer)
	})
}

// PutUnread overwrites the unread badge list.
func (db *DB) PutUnread(owner string, list []hangout.Hangout) error {
	if list == nil {
		list = []hangout.Hangout{}
	}
	return db.Set(UnreadKey(owner), list)
}
