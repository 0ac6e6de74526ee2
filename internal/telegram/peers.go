package telegram

import (
	"sync"

	"github.com/gotd/td/tg"
)

// peerCache remembers access hashes seen in dialogs and updates. Short
// updates (private chats, Saved Messages) carry no entities, so their peer
// is resolved from here.
type peerCache struct {
	mu       sync.RWMutex
	self     int64
	users    map[int64]int64
	channels map[int64]int64
}

func newPeerCache() *peerCache {
	return &peerCache{
		users:    make(map[int64]int64),
		channels: make(map[int64]int64),
	}
}

func (c *peerCache) setSelf(id int64) {
	c.mu.Lock()
	c.self = id
	c.mu.Unlock()
}

// rememberInput records the hash carried by a dialog peer.
func (c *peerCache) rememberInput(p tg.InputPeerClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch p := p.(type) {
	case *tg.InputPeerUser:
		c.users[p.UserID] = p.AccessHash
	case *tg.InputPeerChannel:
		c.channels[p.ChannelID] = p.AccessHash
	}
}

// rememberEntities records every user and channel attached to an update.
func (c *peerCache) rememberEntities(e tg.Entities) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, u := range e.Users {
		if u.Self {
			c.self = id
		}
		c.users[id] = u.AccessHash
	}
	for id, ch := range e.Channels {
		c.channels[id] = ch.AccessHash
	}
}

func (c *peerCache) User(id int64) (*tg.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.self != 0 && id == c.self {
		return &tg.User{ID: id, Self: true}, true
	}
	hash, ok := c.users[id]
	if !ok {
		return nil, false
	}
	return &tg.User{ID: id, AccessHash: hash}, true
}

func (c *peerCache) Channel(id int64) (*tg.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hash, ok := c.channels[id]
	if !ok {
		return nil, false
	}
	return &tg.Channel{ID: id, AccessHash: hash}, true
}

// lookupChain tries each lookup in order.
type lookupChain []entityLookup

func (l lookupChain) User(id int64) (*tg.User, bool) {
	for _, e := range l {
		if u, ok := e.User(id); ok {
			return u, true
		}
	}
	return nil, false
}

func (l lookupChain) Channel(id int64) (*tg.Channel, bool) {
	for _, e := range l {
		if ch, ok := e.Channel(id); ok {
			return ch, true
		}
	}
	return nil, false
}
