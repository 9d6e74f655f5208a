package executor

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestInflightAcquireRelease(t *testing.T) {
	s := newInflightSet()
	if !s.acquire("RPT-1") {
		t.Fatal("first acquire failed")
	}
	if s.acquire("RPT-1") {
		t.Fatal("second acquire succeeded while held")
	}
	if !s.acquire("RPT-2") {
		t.Fatal("unrelated task blocked")
	}
	s.release("RPT-1")
	if !s.acquire("RPT-1") {
		t.Fatal("acquire after release failed")
	}
}

func TestInflightConcurrent(t *testing.T) {
	s := newInflightSet()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.acquire("RPT-1") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("acquired %d times concurrently, want 1", wins.Load())
	}
}
