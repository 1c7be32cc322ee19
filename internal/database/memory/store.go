// In-memory storage used by the "memory" driver and in tests.
package memory

import (
	"sync"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
)

// Store keeps all records in maps. mu guards the maps themselves. Every
// operation that changes an event's seats or deletes the event holds that
// event's lock from eventLocks for its whole check-then-write sequence;
// mu is taken only around the individual reads and writes.
type Store struct {
	mu sync.RWMutex

	events   map[int64]*entity.Event
	bookings map[int64]*entity.Booking
	refs     map[string]int64
	users    map[int64]*entity.User
	emails   map[string]int64

	nextEventID   int64
	nextBookingID int64
	nextUserID    int64

	eventLocks *keyedMutex
}

func NewStore() *Store {
	return &Store{
		events:     make(map[int64]*entity.Event),
		bookings:   make(map[int64]*entity.Booking),
		refs:       make(map[string]int64),
		users:      make(map[int64]*entity.User),
		emails:     make(map[string]int64),
		eventLocks: newKeyedMutex(),
	}
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds
// or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*keyLock)}
}

// Lock blocks until the key is free and returns its unlock func.
func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func copyEvent(e *entity.Event) *entity.Event {
	c := *e
	return &c
}

func copyUser(u *entity.User) *entity.User {
	c := *u
	return &c
}
