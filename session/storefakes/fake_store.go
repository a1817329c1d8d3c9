package storefakes

import (
	"sync"

	"github.com/mercfleet/fleet-client-go/session"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore is an in-memory session store for tests.
type FakeStore struct {
	lock    sync.RWMutex
	record  *session.Session
	sets    int
	removes int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Get() (*session.Session, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	if fs.record == nil {
		return nil, nil
	}
	copied := *fs.record
	return &copied, nil
}

func (fs *FakeStore) Set(s *session.Session) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	copied := *s
	fs.record = &copied
	fs.sets++
	return nil
}

func (fs *FakeStore) Remove() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.record = nil
	fs.removes++
	return nil
}

// Sets returns how many times Set was called.
func (fs *FakeStore) Sets() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.sets
}

// Removes returns how many times Remove was called.
func (fs *FakeStore) Removes() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.removes
}
