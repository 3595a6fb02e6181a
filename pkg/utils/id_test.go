package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	id1 := GenerateRunID()
	id2 := GenerateRunID()

	if id1 == id2 {
		t.Error("GenerateRunID should return unique IDs")
	}
	if !strings.HasPrefix(id1, "run-") {
		t.Errorf("GenerateRunID should start with 'run-': %s", id1)
	}
	if parts := strings.Split(id1, "-"); len(parts) < 4 {
		t.Errorf("GenerateRunID should carry date, time and suffix: %s", id1)
	}
}

func TestIDConcurrency(t *testing.T) {
	const goroutines = 10
	const perGoroutine = 20

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := GenerateRunID()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id %s", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Errorf("expected %d ids, got %d", goroutines*perGoroutine, len(seen))
	}
}
