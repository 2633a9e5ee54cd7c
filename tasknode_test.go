package parafor

import "testing"

func TestTaskNode(t *testing.T) {
	t.Run("new node starts at refcount 1", func(t *testing.T) {
		n := newTaskNode(nil)
		if n.refs() != 1 {
			t.Errorf("expected refcount 1, got %d", n.refs())
		}
	})

	t.Run("creating a child bumps the parent's refcount", func(t *testing.T) {
		parent := newTaskNode(nil)
		child := newTaskNode(parent)
		if parent.refs() != 2 {
			t.Errorf("expected parent refcount 2, got %d", parent.refs())
		}
		if child.refs() != 1 {
			t.Errorf("expected child refcount 1, got %d", child.refs())
		}
	})

	t.Run("releasing the last child reference cascades to the parent", func(t *testing.T) {
		parent := newTaskNode(nil)
		child := newTaskNode(parent)
		child.release()
		if parent.refs() != 1 {
			t.Errorf("expected parent refcount back to 1, got %d", parent.refs())
		}
	})

	t.Run("a grandchild chain cascades through every ancestor", func(t *testing.T) {
		root := newTaskNode(nil)
		mid := newTaskNode(root)
		leaf := newTaskNode(mid)

		if root.refs() != 2 || mid.refs() != 2 {
			t.Fatalf("unexpected refcounts before release: root=%d mid=%d", root.refs(), mid.refs())
		}

		leaf.release()
		if mid.refs() != 1 {
			t.Errorf("expected mid refcount 1 after leaf release, got %d", mid.refs())
		}

		mid.release()
		if root.refs() != 1 {
			t.Errorf("expected root refcount 1 after mid release, got %d", root.refs())
		}
	})

	t.Run("multiple siblings keep the parent alive until all release", func(t *testing.T) {
		parent := newTaskNode(nil)
		a := newTaskNode(parent)
		b := newTaskNode(parent)
		if parent.refs() != 3 {
			t.Fatalf("expected parent refcount 3, got %d", parent.refs())
		}
		a.release()
		if parent.refs() != 2 {
			t.Errorf("expected parent refcount 2 after first sibling release, got %d", parent.refs())
		}
		b.release()
		if parent.refs() != 1 {
			t.Errorf("expected parent refcount 1 after both siblings release, got %d", parent.refs())
		}
	})
}
