package session

import (
	"sync"
	"testing"
)

func TestProgressClone(t *testing.T) {
	p := NewProgress()
	p.HasTopic = true
	p.Context["topic"] = "quarterly results"

	cp := p.Clone()
	cp.Context["topic"] = "something else"
	cp.HasStrawman = true

	if p.Context["topic"] != "quarterly results" {
		t.Error("clone mutated original context")
	}
	if p.HasStrawman {
		t.Error("clone mutated original flags")
	}
}

func TestHasIntakeBasics(t *testing.T) {
	p := NewProgress()
	if p.HasIntakeBasics() {
		t.Error("empty progress should not have intake basics")
	}
	p.HasTopic = true
	p.HasAudience = true
	p.HasDuration = true
	p.HasPurpose = true
	if !p.HasIntakeBasics() {
		t.Error("expected intake basics to be satisfied")
	}
}

func TestManagerSerializesPerSession(t *testing.T) {
	m := NewManager()

	var mu sync.Mutex
	inFlight := map[string]int{}
	maxInFlight := map[string]int{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		sessID := "a"
		if i%2 == 0 {
			sessID = "b"
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			m.Lock(id)
			defer m.Unlock(id)

			mu.Lock()
			inFlight[id]++
			if inFlight[id] > maxInFlight[id] {
				maxInFlight[id] = inFlight[id]
			}
			mu.Unlock()

			mu.Lock()
			inFlight[id]--
			mu.Unlock()
		}(sessID)
	}
	wg.Wait()

	for id, n := range maxInFlight {
		if n > 1 {
			t.Errorf("session %s had %d concurrent holders", id, n)
		}
	}
}

func TestManagerForget(t *testing.T) {
	m := NewManager()
	m.Lock("x")
	m.Unlock("x")
	m.Forget("x")
	// Re-acquiring after Forget must not deadlock.
	m.Lock("x")
	m.Unlock("x")
}
