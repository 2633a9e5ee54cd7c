package parafor

import "sync/atomic"

// taskNode is the intrusively reference-counted DAG node of C5, rooting
// the lifetime of a single top-level ParallelFor/ParallelDo call's task
// tree. Grounded on original_source/include/timespan_partitioner.h's
// TaskNode: there, a child node holds a std::shared_ptr to its parent as a
// member, so the parent's use_count is incremented for as long as the
// child node is alive, and decremented automatically when the child node
// is destroyed. Go has no intrusive shared_ptr, so newTaskNode/release
// replicate that bookkeeping by hand: creating a node bumps its parent's
// count by one, and dropping a node's own count to zero cascades into
// releasing the parent's reference in turn.
type taskNode struct {
	parent   *taskNode
	refcount atomic.Int64
}

// newTaskNode creates a node with its own reference already held (mirrors
// std::make_shared producing use_count 1) and, if parent is non-nil, bumps
// the parent's refcount by one for the duration of this node's life.
func newTaskNode(parent *taskNode) *taskNode {
	if parent != nil {
		parent.refcount.Add(1)
	}
	n := &taskNode{parent: parent}
	n.refcount.Store(1)
	return n
}

// release drops one reference. When the count reaches zero, the node
// releases its own hold on its parent, exactly as a shared_ptr member
// going out of scope would.
func (n *taskNode) release() {
	if n.refcount.Add(-1) == 0 && n.parent != nil {
		n.parent.release()
	}
}

// refs reports the node's live reference count. The facade's drain loop
// watches the root node's refs(): it returns (having dropped its own
// extra reference) once refs() == 1, meaning no descendant task remains.
func (n *taskNode) refs() int64 {
	return n.refcount.Load()
}
