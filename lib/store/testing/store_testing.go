package testing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/kvrpc/lib/store"
)

// StoreFactory is a function that creates a new, empty IStore implementation
type StoreFactory func() store.IStore

// RunStoreTests runs the test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory())
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, factory())
		})

		t.Run("ConcurrentMixed", func(t *testing.T) {
			testConcurrentMixed(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	if _, ok := s.Get("missing"); ok {
		t.Errorf("expected missing key to be absent")
	}

	for i := 0; i < 100; i++ {
		s.Set(fmt.Sprintf("Key%d", i), fmt.Sprintf("Value%d", i))
	}

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("Key%d", i)
		val, ok := s.Get(key)
		if !ok {
			t.Errorf("key %s not found", key)
			continue
		}
		if want := fmt.Sprintf("Value%d", i); val != want {
			t.Errorf("key %s: got %q, want %q", key, val, want)
		}
	}
}

func testOverwrite(t *testing.T, s store.IStore) {
	s.Set("key", "v1")
	s.Set("key", "v2")

	val, ok := s.Get("key")
	if !ok || val != "v2" {
		t.Errorf("expected last write to win, got %q (found=%v)", val, ok)
	}
}

func testRemove(t *testing.T, s store.IStore) {
	if s.Remove("missing") {
		t.Errorf("removing a missing key must return false")
	}

	s.Set("key", "value")
	if !s.Remove("key") {
		t.Errorf("first remove must return true")
	}
	if s.Remove("key") {
		t.Errorf("second remove must return false")
	}
	if _, ok := s.Get("key"); ok {
		t.Errorf("key still present after remove")
	}

	// the key can be created again after removal
	s.Set("key", "again")
	if val, ok := s.Get("key"); !ok || val != "again" {
		t.Errorf("expected re-created key, got %q (found=%v)", val, ok)
	}
}

func testEdgeCases(t *testing.T, s store.IStore) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"empty value", "empty", ""},
		{"whitespace", "white space key", "white space value"},
		{"unicode", "schlüssel", "wert ✓"},
		{"large value", "large", string(make([]byte, 1<<20))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s.Set(tc.key, tc.value)
			val, ok := s.Get(tc.key)
			if !ok {
				t.Fatalf("key %q not found", tc.key)
			}
			if val != tc.value {
				t.Errorf("value mismatch for key %q", tc.key)
			}
		})
	}
}

// testConcurrentWriters checks that concurrent writes with distinct keys are never lost
func testConcurrentWriters(t *testing.T, s store.IStore) {
	const writers = 50

	var wg sync.WaitGroup
	wg.Add(writers)
	start := make(chan struct{})

	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			<-start
			s.Set(fmt.Sprintf("Key_%d", i), fmt.Sprintf("Value_%d", i))
		}(i)
	}

	close(start)
	wg.Wait()

	for i := 0; i < writers; i++ {
		key := fmt.Sprintf("Key_%d", i)
		val, ok := s.Get(key)
		if !ok || val != fmt.Sprintf("Value_%d", i) {
			t.Errorf("lost update for %s: got %q (found=%v)", key, val, ok)
		}
	}
}

// testConcurrentMixed hammers a small set of hot keys; each remove must only
// succeed once per preceding set, which is checked via the removal count
func testConcurrentMixed(t *testing.T, s store.IStore) {
	const (
		workers = 8
		ops     = 2_000
	)

	var wg sync.WaitGroup
	wg.Add(workers)

	var mu sync.Mutex
	removed := 0

	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			localRemoved := 0
			for i := 0; i < ops; i++ {
				key := fmt.Sprintf("hot-key-%d", i%10)
				switch (i + w) % 3 {
				case 0:
					s.Set(key, fmt.Sprintf("%d-%d", w, i))
				case 1:
					s.Get(key)
				case 2:
					if s.Remove(key) {
						localRemoved++
					}
				}
			}
			mu.Lock()
			removed += localRemoved
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	sets := 0
	for w := 0; w < workers; w++ {
		for i := 0; i < ops; i++ {
			if (i+w)%3 == 0 {
				sets++
			}
		}
	}
	if removed > sets {
		t.Errorf("more successful removes (%d) than sets (%d)", removed, sets)
	}
}
