package dashboard

import "encoding/json"

// Capacities of the two history buffers.
const (
	MaxLogEntries   = 50
	MaxChatMessages = 100
)

// ActivityLog is a fixed-capacity ring of ActivityEntry ordered
// newest-first. Once full, pushing a new entry discards the oldest one
// at the tail. The zero value is ready to use, and a plain struct copy
// is a deep copy.
type ActivityLog struct {
	entries [MaxLogEntries]ActivityEntry
	head    int // index of the newest entry
	size    int
}

// Push inserts e as the newest entry, evicting the oldest when full.
func (l *ActivityLog) Push(e ActivityEntry) {
	l.head = (l.head - 1 + MaxLogEntries) % MaxLogEntries
	l.entries[l.head] = e
	if l.size < MaxLogEntries {
		l.size++
	}
}

// Len returns the number of entries currently held.
func (l *ActivityLog) Len() int { return l.size }

// Entries returns the entries newest-first.
func (l *ActivityLog) Entries() []ActivityEntry {
	out := make([]ActivityEntry, l.size)
	for i := range out {
		out[i] = l.entries[(l.head+i)%MaxLogEntries]
	}
	return out
}

// MarshalJSON emits the log as a newest-first JSON array.
func (l ActivityLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Entries())
}

// UnmarshalJSON rebuilds the ring from a newest-first JSON array.
func (l *ActivityLog) UnmarshalJSON(data []byte) error {
	var entries []ActivityEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*l = ActivityLog{}
	for i := len(entries) - 1; i >= 0; i-- {
		l.Push(entries[i])
	}
	return nil
}

// Transcript is a fixed-capacity ring of ChatMessage ordered
// oldest-first. Once full, pushing a new message discards the oldest one
// at the head. The zero value is ready to use, and a plain struct copy
// is a deep copy.
type Transcript struct {
	msgs  [MaxChatMessages]ChatMessage
	start int // index of the oldest message
	size  int
}

// Push appends m as the newest message, evicting the oldest when full.
func (t *Transcript) Push(m ChatMessage) {
	if t.size < MaxChatMessages {
		t.msgs[(t.start+t.size)%MaxChatMessages] = m
		t.size++
		return
	}
	t.msgs[t.start] = m
	t.start = (t.start + 1) % MaxChatMessages
}

// Len returns the number of messages currently held.
func (t *Transcript) Len() int { return t.size }

// Messages returns the messages oldest-first.
func (t *Transcript) Messages() []ChatMessage {
	out := make([]ChatMessage, t.size)
	for i := range out {
		out[i] = t.msgs[(t.start+i)%MaxChatMessages]
	}
	return out
}

// MarshalJSON emits the transcript as an oldest-first JSON array.
func (t Transcript) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Messages())
}

// UnmarshalJSON rebuilds the ring from an oldest-first JSON array.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	var msgs []ChatMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return err
	}
	*t = Transcript{}
	for _, m := range msgs {
		t.Push(m)
	}
	return nil
}
