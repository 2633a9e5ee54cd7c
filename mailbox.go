package parafor

import "sync/atomic"

// mailboxCapacity is the fixed per-worker mailbox capacity (spec §3, power
// of two).
const mailboxCapacity = 1024

type mailboxCell struct {
	seq  atomic.Uint64
	task *task
}

// mailbox is the bounded MPMC inbox of C2, Vyukov-style: each slot carries
// a sequence number so producers and consumers can claim slots with a
// single CAS and no locks. Grounded on the rigtorp::mpmc::Queue the
// original's nonblocking_thread_pool.h references for its per-thread
// mailbox.
type mailbox struct {
	cells [mailboxCapacity]mailboxCell
	enq   atomic.Uint64
	deq   atomic.Uint64
}

func newMailbox() *mailbox {
	m := &mailbox{}
	for i := range m.cells {
		m.cells[i].seq.Store(uint64(i))
	}
	return m
}

// tryPush is lock-free and total: it returns false immediately on a full
// mailbox rather than waiting.
func (m *mailbox) tryPush(t *task) bool {
	pos := m.enq.Load()
	for {
		cell := &m.cells[pos%mailboxCapacity]
		seq := cell.seq.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if m.enq.CompareAndSwap(pos, pos+1) {
				cell.task = t
				cell.seq.Store(pos + 1)
				return true
			}
			pos = m.enq.Load()
		case diff < 0:
			return false
		default:
			pos = m.enq.Load()
		}
	}
}

// tryPop is lock-free and total: it returns nil immediately on an empty
// mailbox rather than waiting.
func (m *mailbox) tryPop() *task {
	pos := m.deq.Load()
	for {
		cell := &m.cells[pos%mailboxCapacity]
		seq := cell.seq.Load()
		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			if m.deq.CompareAndSwap(pos, pos+1) {
				t := cell.task
				cell.task = nil
				cell.seq.Store(pos + mailboxCapacity)
				return t
			}
			pos = m.deq.Load()
		case diff < 0:
			return nil
		default:
			pos = m.deq.Load()
		}
	}
}

func (m *mailbox) flush() {
	for m.tryPop() != nil {
	}
}
