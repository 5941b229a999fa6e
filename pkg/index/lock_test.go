package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	assert.True(t, overlaps("", "photos"))
	assert.True(t, overlaps("photos", "photos"))
	assert.True(t, overlaps("photos", "photos/2020"))
	assert.True(t, overlaps("photos/2020", "photos"))
	assert.False(t, overlaps("photos", "photos2"))
	assert.False(t, overlaps("photos", "docs"))
}

func TestTreeLockBlocksDescendants(t *testing.T) {
	locks := NewTreeLock()
	unlock := locks.Lock("photos")

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("photos/2020")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("descendant lock acquired while ancestor was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("descendant lock not acquired after release")
	}
}

func TestTreeLockAllowsSiblings(t *testing.T) {
	locks := NewTreeLock()
	unlock := locks.Lock("photos")
	defer unlock()

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("docs")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("sibling lock was blocked")
	}
}

func TestTreeLockUnlockIsIdempotent(t *testing.T) {
	locks := NewTreeLock()
	unlock := locks.Lock("")
	unlock()
	unlock()

	release := locks.Lock("photos")
	release()
}
