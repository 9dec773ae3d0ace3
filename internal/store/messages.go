package store

import "github.com/matheus3301/hangouts/internal/hangout"

// Messages returns the conversation with peer in local arrival order.
func (db *DB) Messages(owner, peer string) ([]hangout.Message, error) {
	msgs := []hangout.Message{}
	if _, err := db.Get(MessagesKey(owner, peer), &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []hangout.Message{}
	}
	return msgs, nil
}

// AppendMessage appends m to the conversation with peer and returns the new list.
func (db *DB) AppendMessage(owner, peer string, m hangout.Message) ([]hangout.Message, error) {
	return update(db, MessagesKey(owner, peer), func(cur []hangout.Message) []hangout.Message {
		return append(cur, m)
	})
}

// MarkMessageDelivered flips the delivered flag of the message sent by sender at
// timestamp. Reports whether such a message was found.
func (db *DB) MarkMessageDelivered(owner, peer, sender string, timestamp int64) (bool, error) {
	found := false
	_, err := update(db, MessagesKey(owner, peer), func(cur []hangout.Message) []hangout.Message {
		found = hangout.MarkDelivered(cur, sender, timestamp)
		if cur == nil {
			cur = []hangout.Message{}
		}
		return cur
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// PutMessages overwrites the conversation with peer.
func (db *DB) PutMessages(owner, peer string, msgs []hangout.Message) error {
	if msgs == nil {
		msgs = []hangout.Message{}
	}
	return db.Set(MessagesKey(owner, peer), msgs)
}
