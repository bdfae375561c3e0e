package workflow

import (
	"sync"
	"testing"
)

// These tests are intentionally DB-free. They validate the intended posting
// semantics: retried submissions are safe via durable idempotency, and
// per-business serialization prevents racey interleavings inside postings.
// Full DB coverage lives in the docker-gated integration tests.

type fakePoster struct {
	muByBiz map[string]*sync.Mutex
	mu      sync.Mutex
	seen    map[string]bool
	calls   int
}

func newFakePoster() *fakePoster {
	return &fakePoster{
		muByBiz: map[string]*sync.Mutex{},
		seen:    map[string]bool{},
	}
}

func (p *fakePoster) post(businessId, handlerName, messageId string, fn func()) {
	// Serialize per business (AcquireBusinessPostingLock).
	p.mu.Lock()
	bm := p.muByBiz[businessId]
	if bm == nil {
		bm = &sync.Mutex{}
		p.muByBiz[businessId] = bm
	}
	p.mu.Unlock()

	bm.Lock()
	defer bm.Unlock()

	// Deduplicate (IdempotencyKey).
	key := businessId + "|" + handlerName + "|" + messageId
	p.mu.Lock()
	if p.seen[key] {
		p.mu.Unlock()
		return
	}
	p.seen[key] = true
	p.mu.Unlock()

	fn()

	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
}

func TestDuplicateSubmissionIsPostedOnce(t *testing.T) {
	p := newFakePoster()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.post("biz-1", "damage_batch", "batch-42", func() {})
		}()
	}
	wg.Wait()

	if p.calls != 1 {
		t.Fatalf("expected exactly 1 posting, got %d", p.calls)
	}
}

func TestPostingDeterministicUnderConcurrency(t *testing.T) {
	for run := 0; run < 100; run++ {
		p := newFakePoster()
		var wg sync.WaitGroup

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.post("biz-1", "damage_batch", "1", func() {})
				p.post("biz-1", "interbranch", "2", func() {})
				p.post("biz-1", "damage_batch", "1", func() {}) // duplicate
			}()
		}
		wg.Wait()

		if p.calls != 2 {
			t.Fatalf("run=%d expected 2 unique postings, got %d", run, p.calls)
		}
	}
}
