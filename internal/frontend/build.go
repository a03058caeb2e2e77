package frontend

import (
	"context"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/cxref/internal/cursor"
)

// namespace selects which declarations a name is looked up among.
type namespace int

const (
	nsOrdinary namespace = iota // variables, functions, enumerators, typedefs
	nsType                      // a type name used without a tag keyword
	nsTag                       // struct, union, enum and class tags
	nsMember                    // fields and methods
)

type scope struct {
	names map[string]*cursor.Node
	tags  map[string]*cursor.Node
}

func newScope() *scope {
	return &scope{
		names: make(map[string]*cursor.Node),
		tags:  make(map[string]*cursor.Node),
	}
}

// pendingRef is a use whose declaration had not been seen yet.
type pendingRef struct {
	name  string
	ns    namespace
	nodes []*cursor.Node
}

type fileState struct {
	file string
	base string
	src  []byte
}

type funcState struct {
	name    string
	labels  map[string]*cursor.Node
	pending []pendingRef
}

// builder converts tree-sitter syntax trees into cursor trees.
type builder struct {
	fileState
	fn funcState

	ctx    context.Context
	err    error
	tu     *TranslationUnit
	parser *sitter.Parser
	trees  []*sitter.Tree
	opts   Options
	logger *slog.Logger

	parsed  map[string]bool
	depth   int
	scopes  []*scope
	macros  map[string]*cursor.Node
	members map[string][]*cursor.Node
	pending []pendingRef
	prefix  []string // USR context segments, e.g. "@N@geo", "@S@point"
	classes []string // enclosing class names, innermost last
}

func newBuilder(tu *TranslationUnit, parser *sitter.Parser, opts Options, logger *slog.Logger) *builder {
	return &builder{
		ctx:     context.Background(),
		tu:      tu,
		parser:  parser,
		opts:    opts,
		logger:  logger,
		parsed:  make(map[string]bool),
		scopes:  []*scope{newScope()},
		macros:  make(map[string]*cursor.Node),
		members: make(map[string][]*cursor.Node),
	}
}

func (b *builder) close() {
	for _, t := range b.trees {
		t.Close()
	}
	b.trees = nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (b *builder) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(b.src)
}

func (b *builder) loc(n *sitter.Node) cursor.Location {
	p := n.StartPoint()
	return cursor.Location{File: b.file, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

// add appends a cursor of the given kind located at n.
func (b *builder) add(parent *cursor.Node, kind cursor.Kind, name string, n *sitter.Node) *cursor.Node {
	node := &cursor.Node{
		NodeKind: kind,
		Name:     name,
		Display:  name,
		Loc:      b.loc(n),
		Storage:  cursor.StorageInvalid,
	}
	parent.Append(node)
	return node
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil &&
		a.StartByte() == b.StartByte() &&
		a.EndByte() == b.EndByte() &&
		a.Type() == b.Type()
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func (b *builder) storageOf(n *sitter.Node) cursor.StorageClass {
	for _, c := range namedChildren(n) {
		if c.Type() != "storage_class_specifier" {
			continue
		}
		if sc, ok := cursor.StorageClassForSpecifier(strings.TrimSpace(b.text(c))); ok {
			return sc
		}
	}
	return cursor.StorageNone
}

func (b *builder) scopePrefix() string { return strings.Join(b.prefix, "") }

func (b *builder) pushScope() { b.scopes = append(b.scopes, newScope()) }
func (b *builder) popScope()  { b.scopes = b.scopes[:len(b.scopes)-1] }

func (b *builder) current() *scope { return b.scopes[len(b.scopes)-1] }

func (b *builder) declare(name string, node *cursor.Node) {
	if name == "" {
		return
	}
	b.current().names[name] = node
}

// declareTag records a tag; a definition is never replaced by a later
// forward declaration.
func (b *builder) declareTag(name string, node *cursor.Node) {
	tags := b.current().tags
	if prev, ok := tags[name]; ok && prev.Defines && !node.Defines {
		return
	}
	tags[name] = node
}

func (b *builder) declareMember(name string, node *cursor.Node) {
	b.members[name] = append(b.members[name], node)
}

func (b *builder) lookupIn(name string, pick func(*scope) map[string]*cursor.Node) *cursor.Node {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if n, ok := pick(b.scopes[i])[name]; ok {
			return n
		}
	}
	return nil
}

func scopeNames(s *scope) map[string]*cursor.Node { return s.names }
func scopeTags(s *scope) map[string]*cursor.Node  { return s.tags }

// lookup finds the declaration a name refers to. Members resolve to the
// most recent field or method of that name; there is no type information
// to pick the right aggregate.
func (b *builder) lookup(name string, ns namespace) *cursor.Node {
	switch ns {
	case nsTag:
		return b.lookupIn(name, scopeTags)
	case nsMember:
		if decls := b.members[name]; len(decls) > 0 {
			return decls[len(decls)-1]
		}
		return nil
	case nsType:
		if n := b.lookupIn(name, scopeNames); n != nil {
			return n
		}
		return b.lookupIn(name, scopeTags)
	}
	if n := b.lookupIn(name, scopeNames); n != nil {
		return n
	}
	if b.tu.lang == LangCPP {
		return b.lookup(name, nsMember)
	}
	return nil
}

// bind links nodes to the declaration of name, or defers them until the
// whole unit has been read.
func (b *builder) bind(name string, ns namespace, nodes ...*cursor.Node) {
	if target := b.lookup(name, ns); target != nil {
		for _, n := range nodes {
			n.Ref = target
		}
		return
	}
	b.pending = append(b.pending, pendingRef{name: name, ns: ns, nodes: nodes})
}

// resolvePending retries deferred uses against file scope.
func (b *builder) resolvePending() {
	for _, p := range b.pending {
		target := b.lookup(p.name, p.ns)
		if target == nil && p.ns == nsOrdinary {
			target = b.lookup(p.name, nsMember)
		}
		if target == nil {
			b.logger.Debug("unresolved name", "name", p.name)
			continue
		}
		for _, n := range p.nodes {
			n.Ref = target
		}
	}
	b.pending = nil
}

func (b *builder) isClass(name string) bool {
	tag := b.lookup(name, nsTag)
	if tag == nil {
		return false
	}
	switch tag.NodeKind {
	case cursor.KindStructDecl, cursor.KindClassDecl, cursor.KindUnionDecl:
		return true
	}
	return false
}

// qualifierPrefix renders "a::B::" qualifiers as USR segments.
func (b *builder) qualifierPrefix(quals []string) string {
	var sb strings.Builder
	for _, q := range quals {
		for _, part := range strings.Split(q, "::") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			if b.isClass(part) {
				sb.WriteString("@S@")
			} else {
				sb.WriteString("@N@")
			}
			sb.WriteString(part)
		}
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// Declarators
// ---------------------------------------------------------------------------

var declaratorTypes = map[string]bool{
	"identifier":               true,
	"field_identifier":         true,
	"type_identifier":          true,
	"init_declarator":          true,
	"pointer_declarator":       true,
	"function_declarator":      true,
	"array_declarator":         true,
	"parenthesized_declarator": true,
	"attributed_declarator":    true,
	"reference_declarator":     true,
	"qualified_identifier":     true,
	"destructor_name":          true,
	"operator_name":            true,
	"template_function":        true,
}

// declarators returns the declarator children of a declaration, skipping
// its type and any default member initializer.
func (b *builder) declarators(n *sitter.Node) []*sitter.Node {
	typ := n.ChildByFieldName("type")
	def := n.ChildByFieldName("default_value")
	var out []*sitter.Node
	for _, c := range namedChildren(n) {
		if sameNode(c, typ) || sameNode(c, def) || !declaratorTypes[c.Type()] {
			continue
		}
		out = append(out, c)
	}
	return out
}

type declInfo struct {
	name     *sitter.Node
	function *sitter.Node
	value    *sitter.Node
	extra    []*sitter.Node
}

// innerDeclarator steps one level into a wrapping declarator.
func innerDeclarator(d *sitter.Node) *sitter.Node {
	if next := d.ChildByFieldName("declarator"); next != nil {
		return next
	}
	switch d.Type() {
	case "reference_declarator", "parenthesized_declarator", "attributed_declarator":
		for _, c := range namedChildren(d) {
			switch c.Type() {
			case "ms_call_modifier", "attribute_declaration", "type_qualifier":
				continue
			}
			return c
		}
	}
	return nil
}

// unwrapDeclarator peels pointer, array, function and init wrappers off a
// declarator down to the declared name.
func unwrapDeclarator(d *sitter.Node) declInfo {
	var info declInfo
	for d != nil {
		switch d.Type() {
		case "init_declarator":
			info.value = d.ChildByFieldName("value")
		case "function_declarator":
			if info.function == nil {
				info.function = d
			}
		case "array_declarator":
			if size := d.ChildByFieldName("size"); size != nil {
				info.extra = append(info.extra, size)
			}
		case "pointer_declarator", "reference_declarator", "parenthesized_declarator", "attributed_declarator":
		default:
			if strings.HasPrefix(d.Type(), "abstract_") {
				return info
			}
			info.name = d
			return info
		}
		d = innerDeclarator(d)
	}
	return info
}

// declName returns the spelling of a declarator name and its qualifiers.
func (b *builder) declName(n *sitter.Node) (string, []string) {
	var quals []string
	for n != nil && n.Type() == "qualified_identifier" {
		if s := n.ChildByFieldName("scope"); s != nil {
			quals = append(quals, b.text(s))
		}
		n = n.ChildByFieldName("name")
	}
	if n == nil {
		return "", quals
	}
	switch n.Type() {
	case "destructor_name":
		return "~" + strings.TrimSpace(strings.TrimPrefix(b.text(n), "~")), quals
	case "template_function", "template_type":
		return b.text(n.ChildByFieldName("name")), quals
	}
	return b.text(n), quals
}

// declaratorSuffix renders the pointer, reference and array parts of a
// parameter declarator, e.g. "*" for "char *s".
func declaratorSuffix(d *sitter.Node) string {
	var sb strings.Builder
	for d != nil {
		switch d.Type() {
		case "pointer_declarator", "abstract_pointer_declarator":
			sb.WriteString("*")
		case "reference_declarator", "abstract_reference_declarator":
			sb.WriteString("&")
		case "array_declarator", "abstract_array_declarator":
			sb.WriteString("[]")
		case "function_declarator", "abstract_function_declarator":
			sb.WriteString("()")
		}
		d = innerDeclarator(d)
	}
	return sb.String()
}

func (b *builder) paramType(p *sitter.Node) string {
	var parts []string
	for _, c := range namedChildren(p) {
		if c.Type() == "type_qualifier" {
			parts = append(parts, b.text(c))
		}
	}
	parts = append(parts, strings.Join(strings.Fields(b.text(p.ChildByFieldName("type"))), " "))
	typ := strings.Join(parts, " ")
	if suffix := declaratorSuffix(p.ChildByFieldName("declarator")); suffix != "" {
		typ += " " + suffix
	}
	return typ
}

// paramTypes renders the parameter list of a function declarator the way
// it appears in a display name: "int, char *".
func (b *builder) paramTypes(fn *sitter.Node) string {
	var types []string
	for _, p := range namedChildren(fn.ChildByFieldName("parameters")) {
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
			types = append(types, b.paramType(p))
		case "variadic_parameter", "variadic_parameter_declaration":
			types = append(types, "...")
		}
	}
	if len(types) == 1 && types[0] == "void" {
		return ""
	}
	return strings.Join(types, ", ")
}
