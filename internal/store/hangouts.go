package store

import "github.com/matheus3301/hangouts/internal/hangout"

// Hangouts returns the owner's hangout list. A missing list is empty, not an
// error.
func (db *DB) Hangouts(owner string) ([]hangout.Hangout, error) {
	list := []hangout.Hangout{}
	if _, err := db.Get(HangoutsKey(owner), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []hangout.Hangout{}
	}
	return list, nil
}

// UpsertHangout replaces the stored hangout for h.Username at the same position,
// or appends it, and returns the full updated list.
func (db *DB) UpsertHangout(owner string, h hangout.Hangout) ([]hangout.Hangout, error) {
	return update(db, HangoutsKey(owner), func(cur []hangout.Hangout) []hangout.Hangout {
		return hangout.Upsert(cur, h)
	})
}

// PutHangouts overwrites the owner's hangout list.
func (db *DB) PutHangouts(owner string, list []hangout.Hangout) error {
	if list == nil {
		list = []hangout.Hangout{}
	}
	return db.Set(HangoutsKey(owner), list)
}
