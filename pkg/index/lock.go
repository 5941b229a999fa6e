package index

import (
	"strings"
	"sync"
)

// TreeLock grants exclusive access to subtrees of relative directories.
// Two keys conflict if they are equal or one is an ancestor of the other,
// the empty key stands for the whole tree.
type TreeLock struct {
	mutex sync.Mutex
	cond  *sync.Cond
	held  map[string]struct{}
}

func NewTreeLock() *TreeLock {
	l := &TreeLock{
		held: make(map[string]struct{}),
	}
	l.cond = sync.NewCond(&l.mutex)
	return l
}

// Lock blocks until key can be held and returns the matching unlock.
func (l *TreeLock) Lock(key string) func() {
	key = strings.Trim(key, "/")

	l.mutex.Lock()
	for l.conflicts(key) {
		l.cond.Wait()
	}
	l.held[key] = struct{}{}
	l.mutex.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mutex.Lock()
			delete(l.held, key)
			l.mutex.Unlock()
			l.cond.Broadcast()
		})
	}
}

func (l *TreeLock) conflicts(key string) bool {
	for held := range l.held {
		if overlaps(held, key) {
			return true
		}
	}
	return false
}

func overlaps(a, b string) bool {
	if a == "" || b == "" || a == b {
		return true
	}
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}
