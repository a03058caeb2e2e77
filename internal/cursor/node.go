package cursor

// Node is a plain in-memory Cursor. Front ends build trees of Nodes; tests
// construct them directly.
type Node struct {
	NodeKind   Kind
	Name       string // spelling
	Display    string
	Loc        Location
	ID         string // USR
	Storage    StorageClass
	StorageErr error
	Defines    bool // IsDefinition
	Ref        *Node
	RefErr     error
	Def        *Node
	ChildNodes []*Node
}

// Compile-time check: *Node satisfies Cursor.
var _ Cursor = (*Node)(nil)

func (n *Node) Kind() Kind          { return n.NodeKind }
func (n *Node) Spelling() string    { return n.Name }
func (n *Node) DisplayName() string { return n.Display }
func (n *Node) Location() Location  { return n.Loc }
func (n *Node) USR() string         { return n.ID }
func (n *Node) IsDefinition() bool  { return n.Defines }

func (n *Node) StorageClass() (StorageClass, error) {
	if n.StorageErr != nil {
		return StorageInvalid, n.StorageErr
	}
	return n.Storage, nil
}

func (n *Node) Referenced() (Cursor, error) {
	if n.RefErr != nil {
		return nil, n.RefErr
	}
	if n.Ref == nil {
		return nil, nil
	}
	return n.Ref, nil
}

func (n *Node) Definition() Cursor {
	if n.Def == nil {
		return nil
	}
	return n.Def
}

func (n *Node) Children() []Cursor {
	if len(n.ChildNodes) == 0 {
		return nil
	}
	out := make([]Cursor, len(n.ChildNodes))
	for i, c := range n.ChildNodes {
		out[i] = c
	}
	return out
}

// Append adds children and returns n for chaining.
func (n *Node) Append(children ...*Node) *Node {
	n.ChildNodes = append(n.ChildNodes, children...)
	return n
}

// Unit is an in-memory TranslationUnit.
type Unit struct {
	Path  string
	Root  *Node
	Files []string
}

var _ TranslationUnit = (*Unit)(nil)

func (u *Unit) Spelling() string   { return u.Path }
func (u *Unit) Cursor() Cursor     { return u.Root }
func (u *Unit) Includes() []string { return u.Files }
