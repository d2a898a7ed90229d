package chat

import (
	"slices"
	"sync"
)

// Presence counts open connections per user and room. A user with two tabs
// open is online until both close.
type Presence struct {
	mu    sync.Mutex
	rooms map[string]map[string]int
}

func NewPresence() *Presence {
	return &Presence{rooms: make(map[string]map[string]int)}
}

// Join registers a connection and reports whether it is the user's first in
// the room.
func (p *Presence) Join(room, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rooms[room] == nil {
		p.rooms[room] = make(map[string]int)
	}
	p.rooms[room][userID]++
	return p.rooms[room][userID] == 1
}

// Leave drops a connection and reports whether it was the user's last.
func (p *Presence) Leave(room, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	users := p.rooms[room]
	if users[userID] == 0 {
		return false
	}
	users[userID]--
	if users[userID] > 0 {
		return false
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(p.rooms, room)
	}
	return true
}

// Online returns the users connected to room, sorted.
func (p *Presence) Online(room string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.rooms[room]))
	for id := range p.rooms[room] {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
