package parafor

import (
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestNewPool(t *testing.T) {
	t.Run("resolves n<=0 via NumThreads", func(t *testing.T) {
		p := NewPool(0)
		defer p.Shutdown()
		if p.NumWorkers() <= 0 {
			t.Errorf("expected a positive worker count, got %d", p.NumWorkers())
		}
	})

	t.Run("honors an explicit worker count", func(t *testing.T) {
		p := NewPool(3)
		defer p.Shutdown()
		if p.NumWorkers() != 3 {
			t.Errorf("expected 3 workers, got %d", p.NumWorkers())
		}
	})
}

func TestPoolShutdown(t *testing.T) {
	p := NewPool(2)
	p.Shutdown()
	p.Shutdown() // idempotent, should not block or panic
}

func TestPoolCancel(t *testing.T) {
	p := NewPool(2)
	defer p.Shutdown()
	p.Cancel()
	for i := range p.workers {
		if !p.workers[i].queue.empty() {
			t.Errorf("worker %d queue should be flushed after Cancel", i)
		}
	}
}

func TestTaskAccountingIdentity(t *testing.T) {
	// Testable property: at least one task is created for every call, and
	// dispatch counters never exceed the number of tasks created.
	p := NewPool(4)
	defer p.Shutdown()

	p.ParallelFor(0, 50_000, func(int) {}, WithMode(ModeSharingStealing))

	created := p.metrics.Counter(MetricTasksCreated).Value()
	local := p.metrics.Counter(MetricTasksLocal).Value()
	mailbox := p.metrics.Counter(MetricTasksMailbox).Value()
	stolen := p.metrics.Counter(MetricTasksStolen).Value()

	if created <= 0 {
		t.Fatalf("expected at least one task created, got %v", created)
	}
	if local+mailbox+stolen > created {
		t.Errorf("dispatched tasks (%v local + %v mailbox + %v stolen) exceed created (%v)",
			local, mailbox, stolen, created)
	}
}

func TestRunTimespanStopsOnBudget(t *testing.T) {
	clock := clockz.NewFakeClock()
	p := NewPool(1, WithClock(clock), WithInitTime(10*time.Millisecond))
	defer p.Shutdown()

	executed := 0
	fail := &failureBox{}
	tk := &task{
		pool: p,
		fn: func(int) {
			executed++
			clock.Advance(20 * time.Millisecond)
		},
		node:    newTaskNode(nil),
		fail:    fail,
		current: 0,
		end:     1000,
		grain:   1,
		pol:     policy{balancing: balanceTimespan, grain: grainFixed},
	}
	tk.runTimespan()

	if executed != 1 {
		t.Errorf("expected exactly one iteration before the budget tripped, got %d", executed)
	}
	if tk.current != 1 {
		t.Errorf("expected current to advance by one, got %d", tk.current)
	}
	if tk.current >= tk.end {
		t.Errorf("expected a remaining range for Phase C, current=%d end=%d", tk.current, tk.end)
	}
}
