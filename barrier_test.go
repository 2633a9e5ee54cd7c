package parafor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSpinBarrier(t *testing.T) {
	t.Run("Wait releases only after every participant notifies", func(t *testing.T) {
		b := NewSpinBarrier(3)
		var released atomic.Bool

		go func() {
			b.Wait()
			released.Store(true)
		}()

		b.Notify()
		b.Notify()
		time.Sleep(10 * time.Millisecond)
		if released.Load() {
			t.Fatalf("barrier released before every participant notified")
		}

		b.Notify()
		deadline := time.After(time.Second)
		for !released.Load() {
			select {
			case <-deadline:
				t.Fatalf("barrier never released after all notifications")
			default:
			}
		}
	})

	t.Run("NotifyThenWait releases every participant together", func(t *testing.T) {
		const n = 8
		b := NewSpinBarrier(n)
		var wg sync.WaitGroup
		var arrived atomic.Int32

		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				b.NotifyThenWait()
				arrived.Add(1)
			}()
		}
		wg.Wait()

		if arrived.Load() != n {
			t.Errorf("expected %d goroutines to pass the barrier, got %d", n, arrived.Load())
		}
	})
}
