// Package memory holds the in-process notification store.
package memory

import (
	"sync"
	"time"

	"github.com/go-notifyd/internal/domain"
)

// NotificationStore is the single owner of the live id→notification mapping.
// Writers are exclusive; readers share the lock. Records are copied on the way
// in and on the way out, so callers never hold references into the map.
type NotificationStore struct {
	mu     sync.RWMutex
	items  map[uint32]domain.Notification
	lastID uint32
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{items: make(map[uint32]domain.Notification)}
}

// InsertNew stores n under a freshly assigned id and returns it.
func (s *NotificationStore) InsertNew(n domain.Notification) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID()
	s.put(id, n)
	return id
}

// Replace stores n under id whether or not a record already lives there.
// An id of 0 requests a new id, same as InsertNew.
func (s *NotificationStore) Replace(id uint32, n domain.Notification) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 {
		id = s.nextID()
	}
	s.put(id, n)
	return id
}

// Remove deletes and returns the record for id. ok is false if it was absent.
func (s *NotificationStore) Remove(id uint32) (n domain.Notification, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok = s.items[id]
	if ok {
		delete(s.items, id)
	}
	return n, ok
}

func (s *NotificationStore) Get(id uint32) (domain.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.items[id]
	if !ok {
		return domain.Notification{}, false
	}
	return n.Clone(), true
}

// Snapshot returns a point-in-time deep copy of every live record.
func (s *NotificationStore) Snapshot() map[uint32]domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint32]domain.Notification, len(s.items))
	for id, n := range s.items {
		out[id] = n.Clone()
	}
	return out
}

// ExpiredIDs lists the ids whose expiry has been reached at now. Nothing is
// removed; retiring them is up to the caller.
func (s *NotificationStore) ExpiredIDs(now time.Time) []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []uint32
	for id, n := range s.items {
		if domain.IsExpired(n, now) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *NotificationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// put must be called with mu held for writing.
func (s *NotificationStore) put(id uint32, n domain.Notification) {
	n = n.Clone()
	n.ID = id
	s.items[id] = n
}

// nextID advances the counter, wrapping past the top of the range and skipping
// 0 and any id that is still live. Must be called with mu held for writing.
func (s *NotificationStore) nextID() uint32 {
	for {
		s.lastID++
		if s.lastID == 0 {
			continue
		}
		if _, live := s.items[s.lastID]; !live {
			return s.lastID
		}
	}
}
