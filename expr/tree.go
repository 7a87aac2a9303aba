package expr

import (
	"strconv"
	"strings"
)

// Path addresses a node by the child indices leading to it from the root.
// Unlike a Location, a Path carries no reference to a tree and can be
// resolved against any tree of the same shape, such as a clone.
type Path []int

// Child returns a new path extended by i.
func (p Path) Child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Parent returns the path without its last index.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return append(Path(nil), p[:len(p)-1]...)
}

// HasPrefix reports whether q is a prefix of p.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return "/" + strings.Join(parts, "/")
}

// Tree owns a root node so that the root itself can be replaced through a
// Location.
type Tree struct {
	root Node
}

// NewTree wraps root without copying it.
func NewTree(root Node) *Tree { return &Tree{root: root} }

// Root returns the current root node.
func (t *Tree) Root() Node { return t.root }

// Clone returns an independent deep copy of the tree.
func (t *Tree) Clone() *Tree { return &Tree{root: t.root.Clone()} }

// Top returns the location of the root.
func (t *Tree) Top() Location { return Location{tree: t} }

// At resolves p against t.
func (t *Tree) At(p Path) (Location, bool) {
	loc := t.Top()
	for _, i := range p {
		n := loc.Node()
		if i < 0 || i >= len(n.Children()) {
			return Location{}, false
		}
		loc = loc.Child(i)
	}
	return loc, true
}

// MustAt is At for paths known to be valid, such as paths taken from a
// clone of t before any mutation.
func (t *Tree) MustAt(p Path) Location {
	loc, ok := t.At(p)
	if !ok {
		panic("expr: no node at path " + p.String())
	}
	return loc
}

// Location is a reference to a position inside one specific tree. It keeps
// the parent node and child index so that dereferencing and replacing do
// not re-walk the tree. A Location must not be used with a clone of its
// tree: translate its Path instead.
type Location struct {
	tree   *Tree
	parent Node
	index  int
	path   Path
}

// Tree returns the tree the location belongs to.
func (l Location) Tree() *Tree { return l.tree }

// IsRoot reports whether the location addresses the root.
func (l Location) IsRoot() bool { return l.parent == nil }

// Valid reports whether the location was obtained from a tree.
func (l Location) Valid() bool { return l.tree != nil }

// Path returns a copy of the location's path.
func (l Location) Path() Path { return append(Path(nil), l.path...) }

// Index returns the child index within the parent, or -1 at the root.
func (l Location) Index() int {
	if l.parent == nil {
		return -1
	}
	return l.index
}

// Node dereferences the location.
func (l Location) Node() Node {
	if l.parent == nil {
		return l.tree.root
	}
	return l.parent.Child(l.index)
}

// Replace puts n at the location.
func (l Location) Replace(n Node) {
	if l.parent == nil {
		l.tree.root = n
		return
	}
	l.parent.SetChild(l.index, n)
}

// Child returns the location of the i-th child of the node at l.
func (l Location) Child(i int) Location {
	return Location{tree: l.tree, parent: l.Node(), index: i, path: l.path.Child(i)}
}

// Parent returns the location of the enclosing node.
func (l Location) Parent() (Location, bool) {
	if l.parent == nil {
		return Location{}, false
	}
	return l.tree.At(l.path.Parent())
}

// Walk visits n and its descendants in pre-order. Returning false from
// visit skips the node's children.
func Walk(n Node, visit func(Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, visit)
	}
}

// ResetTags clears every linkage tag in n and returns n.
func ResetTags(n Node) Node {
	Walk(n, func(c Node) bool {
		c.SetTag(0)
		return true
	})
	return n
}
