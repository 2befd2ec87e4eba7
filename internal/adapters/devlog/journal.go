package devlog

import (
	"sync"
	"time"

	"github.com/example/salon-notify/internal/models"
)

const defaultCapacity = 100

// Entry is one message captured by the development log.
type Entry struct {
	Recipient string    `json:"recipient"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	ReplyTo   string    `json:"reply_to,omitempty"`
	LoggedAt  time.Time `json:"logged_at"`
}

// Journal keeps the most recent entries in memory. It is safe for
// concurrent use.
type Journal struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

// NewJournal returns a journal holding at most capacity entries.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Journal{capacity: capacity}
}

// Append records msg, dropping the oldest entry when full.
func (j *Journal) Append(msg *models.OutboundMessage, at time.Time) {
	e := Entry{
		Recipient: string(msg.Recipient),
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.PlainBody,
		ReplyTo:   msg.ReplyTo,
		LoggedAt:  at,
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.entries) == j.capacity {
		copy(j.entries, j.entries[1:])
		j.entries = j.entries[:len(j.entries)-1]
	}
	j.entries = append(j.entries, e)
}

// Entries returns a copy of the journal, oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len reports the number of entries held.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}
