package actor

import (
	"sync"

	"github.com/eapache/queue"
)

// Inbox collects messages sent to an address that has no actor behind it,
// such as a player. When full, the oldest message is dropped.
type Inbox struct {
	mu    sync.Mutex
	limit int
	q     *queue.Queue // of Message
}

func newInbox(limit int) *Inbox {
	return &Inbox{limit: limit, q: queue.New()}
}

// Push appends msg.
func (in *Inbox) Push(msg Message) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for in.q.Length() >= in.limit {
		in.q.Remove()
	}
	in.q.Add(msg)
}

// Drain removes and returns everything queued, oldest first.
func (in *Inbox) Drain() []Message {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]Message, 0, in.q.Length())
	for in.q.Length() > 0 {
		out = append(out, in.q.Remove().(Message))
	}
	return out
}
