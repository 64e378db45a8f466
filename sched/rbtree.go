package sched

// rbColor is a node's color in the red-black tree keyed by (vruntime,
// pid). No library in the retrieved corpus exposes an ordered tree with
// arbitrary composite keys and O(log n) min-extraction, so this is a
// direct, unexported implementation scoped to exactly what CFS needs —
// insert, extract-min, and removal of matching nodes. It follows the standard
// CLRS left-leaning-free red-black formulation.
type rbColor bool

const (
	red   rbColor = true
	black rbColor = false
)

// rbKey orders tree entries by (vruntime, pid), the tie-break §4.4
// specifies so two equal-vruntime tasks still have a total order.
type rbKey struct {
	vruntime int64
	pid      uint32
}

func (a rbKey) less(b rbKey) bool {
	if a.vruntime != b.vruntime {
		return a.vruntime < b.vruntime
	}
	return a.pid < b.pid
}

type rbNode struct {
	key         rbKey
	value       interface{}
	color       rbColor
	left, right *rbNode
	parent      *rbNode
}

// rbTree is a red-black tree mapping rbKey to an arbitrary payload
// (here, always a *process.PCB), supporting insert, extract-min, and
// node deletion (Delete, RemoveWhere).
type rbTree struct {
	root  *rbNode
	count int
}

func (t *rbTree) Len() int { return t.count }

func (t *rbTree) Insert(key rbKey, value interface{}) *rbNode {
	n := &rbNode{key: key, value: value, color: red}

	var parent *rbNode
	cur := t.root
	for cur != nil {
		parent = cur
		if key.less(cur.key) {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	n.parent = parent
	switch {
	case parent == nil:
		t.root = n
	case key.less(parent.key):
		parent.left = n
	default:
		parent.right = n
	}
	t.count++
	t.insertFixup(n)
	return n
}

func (t *rbTree) insertFixup(n *rbNode) {
	for n.parent != nil && n.parent.color == red {
		grandparent := n.parent.parent
		if grandparent == nil {
			break
		}
		if n.parent == grandparent.left {
			uncle := grandparent.right
			if colorOf(uncle) == red {
				n.parent.color = black
				uncle.color = black
				grandparent.color = red
				n = grandparent
				continue
			}
			if n == n.parent.right {
				n = n.parent
				t.rotateLeft(n)
			}
			n.parent.color = black
			grandparent.color = red
			t.rotateRight(grandparent)
		} else {
			uncle := grandparent.left
			if colorOf(uncle) == red {
				n.parent.color = black
				uncle.color = black
				grandparent.color = red
				n = grandparent
				continue
			}
			if n == n.parent.left {
				n = n.parent
				t.rotateRight(n)
			}
			n.parent.color = black
			grandparent.color = red
			t.rotateLeft(grandparent)
		}
	}
	t.root.color = black
}

func colorOf(n *rbNode) rbColor {
	if n == nil {
		return black
	}
	return n.color
}

func (t *rbTree) rotateLeft(x *rbNode) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == nil:
		t.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *rbTree) rotateRight(x *rbNode) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == nil:
		t.root = y
	case x == x.parent.right:
		x.parent.right = y
	default:
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

// Min returns the leftmost node, the smallest (vruntime, pid) key, or
// nil if the tree is empty.
func (t *rbTree) Min() *rbNode {
	n := t.root
	if n == nil {
		return nil
	}
	for n.left != nil {
		n = n.left
	}
	return n
}

// RemoveWhere deletes every node whose value satisfies match and returns
// their values. Matches are collected by an in-order walk before any
// deletion starts, since Delete rewrites the tree's shape beneath the
// node being removed.
func (t *rbTree) RemoveWhere(match func(value interface{}) bool) []interface{} {
	var hits []*rbNode
	var walk func(*rbNode)
	walk = func(n *rbNode) {
		if n == nil {
			return
		}
		walk(n.left)
		if match(n.value) {
			hits = append(hits, n)
		}
		walk(n.right)
	}
	walk(t.root)

	out := make([]interface{}, 0, len(hits))
	for _, n := range hits {
		out = append(out, n.value)
		t.Delete(n)
	}
	return out
}

// Delete removes n from the tree.
func (t *rbTree) Delete(n *rbNode) {
	t.count--

	y := n
	yOriginalColor := y.color
	var x *rbNode
	var xParent *rbNode

	switch {
	case n.left == nil:
		x = n.right
		xParent = n.parent
		t.transplant(n, n.right)
	case n.right == nil:
		x = n.left
		xParent = n.parent
		t.transplant(n, n.left)
	default:
		y = minNode(n.right)
		yOriginalColor = y.color
		x = y.right
		if y.parent == n {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = n.right
			y.right.parent = y
		}
		t.transplant(n, y)
		y.left = n.left
		y.left.parent = y
		y.color = n.color
	}

	if yOriginalColor == black {
		t.deleteFixup(x, xParent)
	}
}

func minNode(n *rbNode) *rbNode {
	for n.left != nil {
		n = n.left
	}
	return n
}

func (t *rbTree) transplant(u, v *rbNode) {
	switch {
	case u.parent == nil:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

// deleteFixup restores the red-black properties after Delete. x may be
// nil (a deleted black leaf), so its parent is threaded through
// explicitly rather than read off x.parent.
func (t *rbTree) deleteFixup(x, parent *rbNode) {
	for x != t.root && colorOf(x) == black && parent != nil {
		if x == parent.left {
			sibling := parent.right
			if colorOf(sibling) == red {
				sibling.color = black
				parent.color = red
				t.rotateLeft(parent)
				sibling = parent.right
			}
			if sibling == nil {
				break
			}
			if colorOf(sibling.left) == black && colorOf(sibling.right) == black {
				sibling.color = red
				x = parent
				parent = x.parent
				continue
			}
			if colorOf(sibling.right) == black {
				if sibling.left != nil {
					sibling.left.color = black
				}
				sibling.color = red
				t.rotateRight(sibling)
				sibling = parent.right
			}
			sibling.color = parent.color
			parent.color = black
			if sibling.right != nil {
				sibling.right.color = black
			}
			t.rotateLeft(parent)
			x = t.root
			parent = nil
		} else {
			sibling := parent.left
			if colorOf(sibling) == red {
				sibling.color = black
				parent.color = red
				t.rotateRight(parent)
				sibling = parent.left
			}
			if sibling == nil {
				break
			}
			if colorOf(sibling.right) == black && colorOf(sibling.left) == black {
				sibling.color = red
				x = parent
				parent = x.parent
				continue
			}
			if colorOf(sibling.left) == black {
				if sibling.right != nil {
					sibling.right.color = black
				}
				sibling.color = red
				t.rotateLeft(sibling)
				sibling = parent.left
			}
			sibling.color = parent.color
			parent.color = black
			if sibling.left != nil {
				sibling.left.color = black
			}
			t.rotateRight(parent)
			x = t.root
			parent = nil
		}
	}
	if x != nil {
		x.color = black
	}
}
