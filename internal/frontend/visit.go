package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/cxref/internal/cursor"
)

// genericKinds maps statement and expression nodes that need no special
// handling to the cursor kind they produce.
var genericKinds = map[string]cursor.Kind{
	"binary_expression":           cursor.KindBinaryOperator,
	"unary_expression":            cursor.KindUnaryOperator,
	"pointer_expression":          cursor.KindUnaryOperator,
	"update_expression":           cursor.KindUnaryOperator,
	"parenthesized_expression":    cursor.KindParenExpr,
	"subscript_expression":        cursor.KindArraySubscriptExpr,
	"conditional_expression":      cursor.KindConditionalOperator,
	"cast_expression":             cursor.KindCStyleCastExpr,
	"initializer_list":            cursor.KindInitListExpr,
	"compound_literal_expression": cursor.KindCompoundLiteralExpr,
	"sizeof_expression":           cursor.KindUnexposedExpr,
	"comma_expression":            cursor.KindBinaryOperator,
	"if_statement":                cursor.KindIfStmt,
	"while_statement":             cursor.KindWhileStmt,
	"do_statement":                cursor.KindDoStmt,
	"switch_statement":            cursor.KindSwitchStmt,
	"return_statement":            cursor.KindReturnStmt,
	"break_statement":             cursor.KindBreakStmt,
	"continue_statement":          cursor.KindContinueStmt,
}

// literalKinds are leaves; their children are never visited.
var literalKinds = map[string]cursor.Kind{
	"string_literal":      cursor.KindStringLiteral,
	"raw_string_literal":  cursor.KindStringLiteral,
	"concatenated_string": cursor.KindStringLiteral,
	"char_literal":        cursor.KindCharacterLiteral,
}

// ignored nodes produce no cursors and are not descended into.
var ignored = map[string]bool{
	"comment":                   true,
	"primitive_type":            true,
	"sized_type_specifier":      true,
	"type_qualifier":            true,
	"storage_class_specifier":   true,
	"template_parameter_list":   true,
	"access_specifier":          true,
	"attribute_specifier":       true,
	"attribute_declaration":     true,
	"ms_declspec_modifier":      true,
	"escape_sequence":           true,
	"true":                      true,
	"false":                     true,
	"null":                      true,
	"this":                      true,
	"auto":                      true,
	"preproc_arg":               true,
	"preproc_params":            true,
	"preproc_defined":           true,
	"namespace_identifier":      true,
	"using_declaration":         true,
	"static_assert_declaration": true,
}

func (b *builder) visitChildren(n *sitter.Node, parent *cursor.Node) {
	for _, c := range namedChildren(n) {
		b.visit(c, parent)
	}
}

func (b *builder) visitChildrenExcept(n *sitter.Node, parent *cursor.Node, skip ...*sitter.Node) {
next:
	for _, c := range namedChildren(n) {
		for _, s := range skip {
			if sameNode(c, s) {
				continue next
			}
		}
		b.visit(c, parent)
	}
}

func (b *builder) visit(n *sitter.Node, parent *cursor.Node) {
	if n == nil || b.err != nil {
		return
	}
	typ := n.Type()
	if ignored[typ] {
		return
	}
	switch typ {
	case "preproc_include":
		b.include(n, parent)
	case "preproc_def", "preproc_function_def":
		b.macroDefinition(n, parent)
	case "preproc_call":
		b.preprocCall(n)
	case "preproc_ifdef", "preproc_if", "preproc_elif", "preproc_elifdef":
		b.visitChildrenExcept(n, parent, n.ChildByFieldName("name"), n.ChildByFieldName("condition"))
	case "function_definition":
		b.functionDefinition(n, parent)
	case "declaration":
		b.declaration(n, parent)
	case "field_declaration":
		b.fieldDeclaration(n, parent)
	case "type_definition":
		b.typeDefinition(n, parent)
	case "alias_declaration":
		b.aliasDeclaration(n, parent)
	case "struct_specifier", "union_specifier", "enum_specifier", "class_specifier":
		b.tag(n, parent, atItemLevel(n), "")
	case "namespace_definition":
		b.namespaceDefinition(n, parent)
	case "linkage_specification", "template_declaration", "declaration_list", "expression_statement", "else_clause", "translation_unit":
		b.visitChildren(n, parent)
	case "compound_statement":
		block := b.add(parent, cursor.KindCompoundStmt, "", n)
		b.pushScope()
		b.visitChildren(n, block)
		b.popScope()
	case "for_statement", "for_range_loop":
		loop := b.add(parent, cursor.KindForStmt, "", n)
		b.pushScope()
		b.visitChildren(n, loop)
		b.popScope()
	case "case_statement":
		kind := cursor.KindCaseStmt
		if n.ChildCount() > 0 && n.Child(0).Type() == "default" {
			kind = cursor.KindDefaultStmt
		}
		b.visitChildren(n, b.add(parent, kind, "", n))
	case "assignment_expression":
		kind := cursor.KindBinaryOperator
		if op := n.ChildByFieldName("operator"); op != nil && b.text(op) != "=" {
			kind = cursor.KindCompoundAssignOperator
		}
		b.visitChildren(n, b.add(parent, kind, "", n))
	case "labeled_statement":
		b.labeledStatement(n, parent)
	case "goto_statement":
		b.gotoStatement(n, parent)
	case "call_expression":
		b.callExpression(n, parent)
	case "field_expression":
		b.fieldExpression(n, parent)
	case "field_designator":
		b.fieldDesignator(n, parent)
	case "identifier":
		b.identifier(n, parent)
	case "type_identifier":
		b.typeIdentifier(n, parent)
	case "qualified_identifier":
		b.qualifiedIdentifier(n, parent)
	case "number_literal":
		b.add(parent, numberKind(b.text(n)), "", n)
	default:
		if kind, ok := literalKinds[typ]; ok {
			b.add(parent, kind, "", n)
			return
		}
		if kind, ok := genericKinds[typ]; ok {
			b.visitChildren(n, b.add(parent, kind, "", n))
			return
		}
		b.visitChildren(n, parent)
	}
}

func numberKind(lit string) cursor.Kind {
	lower := strings.ToLower(lit)
	if strings.HasPrefix(lower, "0x") {
		if strings.ContainsAny(lower, ".p") {
			return cursor.KindFloatingLiteral
		}
		return cursor.KindIntegerLiteral
	}
	if strings.ContainsAny(lower, ".e") {
		return cursor.KindFloatingLiteral
	}
	return cursor.KindIntegerLiteral
}

// ---------------------------------------------------------------------------
// Preprocessor
// ---------------------------------------------------------------------------

func (b *builder) macroDefinition(n *sitter.Node, parent *cursor.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := b.text(nameNode)
	node := &cursor.Node{
		NodeKind: cursor.KindMacroDefinition,
		Name:     name,
		Display:  name,
		Loc:      b.loc(nameNode),
		ID:       b.macroUSR(nameNode.StartByte(), name),
		Storage:  cursor.StorageInvalid,
	}
	parent.Append(node)
	b.macros[name] = node
}

// preprocCall handles the directives tree-sitter does not model; only
// #undef matters.
func (b *builder) preprocCall(n *sitter.Node) {
	if strings.TrimSpace(b.text(n.ChildByFieldName("directive"))) != "#undef" {
		return
	}
	delete(b.macros, strings.TrimSpace(b.text(n.ChildByFieldName("argument"))))
}

func (b *builder) macroUse(n *sitter.Node, parent *cursor.Node, name string, def *cursor.Node) *cursor.Node {
	use := b.add(parent, cursor.KindMacroInstantiation, name, n)
	use.Ref = def
	return use
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// atItemLevel reports whether a specifier stands alone as an item, as in
// "struct s;" at file scope.
func atItemLevel(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "translation_unit", "declaration_list", "field_declaration_list", "compound_statement",
		"preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "template_declaration":
		return true
	}
	return false
}

func isTag(n *sitter.Node) bool {
	return n != nil && tagKinds[n.Type()] != 0
}

// ownsTag reports whether a declaration's type is a tag with a body, which
// is then declared beside the declarators rather than referenced by them.
func ownsTag(typ *sitter.Node) bool {
	return isTag(typ) && typ.ChildByFieldName("body") != nil
}

func (b *builder) functionKind(name string, quals []string) cursor.Kind {
	if b.tu.lang != LangCPP {
		return cursor.KindFunctionDecl
	}
	owner := ""
	switch {
	case len(b.classes) > 0:
		owner = b.classes[len(b.classes)-1]
	case len(quals) > 0:
		parts := strings.Split(quals[len(quals)-1], "::")
		if last := strings.TrimSpace(parts[len(parts)-1]); b.isClass(last) {
			owner = last
		}
	}
	switch {
	case owner == "":
		return cursor.KindFunctionDecl
	case strings.HasPrefix(name, "~"):
		return cursor.KindDestructor
	case name == owner:
		return cursor.KindConstructor
	}
	return cursor.KindCXXMethod
}

// declareFunction creates the cursor for a function declarator.
func (b *builder) declareFunction(host *sitter.Node, info declInfo, parent *cursor.Node, isDef bool) *cursor.Node {
	name, quals := b.declName(info.name)
	storage := b.storageOf(host)
	fn := &cursor.Node{
		NodeKind: b.functionKind(name, quals),
		Name:     name,
		Display:  name + "(" + b.paramTypes(info.function) + ")",
		Loc:      b.loc(info.name),
		ID:       b.functionUSR(name, quals, storage),
		Storage:  storage,
		Defines:  isDef,
	}
	parent.Append(fn)
	switch {
	case len(b.classes) > 0 || len(quals) > 0:
		b.declareMember(name, fn)
	default:
		b.declare(name, fn)
	}
	return fn
}

func (b *builder) functionDefinition(n *sitter.Node, parent *cursor.Node) {
	if err := b.ctx.Err(); err != nil {
		b.err = err
		return
	}
	info := unwrapDeclarator(n.ChildByFieldName("declarator"))
	if info.name == nil || info.function == nil {
		b.visitChildren(n, parent)
		return
	}
	fn := b.declareFunction(n, info, parent, true)
	b.visit(n.ChildByFieldName("type"), fn)

	saved := b.fn
	b.fn = funcState{name: fn.Name, labels: make(map[string]*cursor.Node)}
	b.pushScope()
	b.parameters(info.function, fn, true)
	for _, c := range namedChildren(n) {
		if c.Type() == "field_initializer_list" {
			b.visit(c, fn)
		}
	}
	b.visit(n.ChildByFieldName("body"), fn)
	b.resolveLabels()
	b.popScope()
	b.fn = saved
}

// parameters creates PARM_DECL cursors. Parameters of a definition are
// visible in its body.
func (b *builder) parameters(fnDecl *sitter.Node, fn *cursor.Node, scoped bool) {
	for _, p := range namedChildren(fnDecl.ChildByFieldName("parameters")) {
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
		default:
			continue
		}
		typ := p.ChildByFieldName("type")
		info := unwrapDeclarator(p.ChildByFieldName("declarator"))
		if info.name == nil {
			b.visit(typ, fn)
			continue
		}
		name, _ := b.declName(info.name)
		parm := &cursor.Node{
			NodeKind: cursor.KindParmDecl,
			Name:     name,
			Display:  name,
			Loc:      b.loc(info.name),
			ID:       b.localUSR(p.StartByte(), fn.Name, name),
			Storage:  b.storageOf(p),
			Defines:  true,
		}
		fn.Append(parm)
		b.visit(typ, parm)
		for _, e := range info.extra {
			b.visit(e, parm)
		}
		b.visit(p.ChildByFieldName("default_value"), parm)
		if scoped {
			b.declare(name, parm)
		}
	}
}

func (b *builder) declaration(n *sitter.Node, parent *cursor.Node) {
	typ := n.ChildByFieldName("type")
	storage := b.storageOf(n)
	owned := ownsTag(typ)
	decls := b.declarators(n)

	host := parent
	if b.fn.name != "" {
		host = b.add(parent, cursor.KindDeclStmt, "", n)
	}
	switch {
	case owned, len(decls) == 0 && isTag(typ):
		b.tag(typ, host, true, "")
	case len(decls) == 0:
		b.visit(typ, host)
	}

	for _, d := range decls {
		info := unwrapDeclarator(d)
		if info.name == nil {
			b.visit(d, host)
			continue
		}
		if info.function != nil {
			fn := b.declareFunction(n, info, host, false)
			if !owned {
				b.visit(typ, fn)
			}
			b.parameters(info.function, fn, false)
			continue
		}
		name, quals := b.declName(info.name)
		v := &cursor.Node{
			NodeKind: cursor.KindVarDecl,
			Name:     name,
			Display:  name,
			Loc:      b.loc(info.name),
			ID:       b.varUSR(name, quals, storage, n.StartByte()),
			Storage:  storage,
			Defines:  storage != cursor.StorageExtern || info.value != nil,
		}
		host.Append(v)
		if len(quals) == 0 {
			b.declare(name, v)
		}
		if !owned {
			b.visit(typ, v)
		}
		for _, e := range info.extra {
			b.visit(e, v)
		}
		b.visit(info.value, v)
	}
}

func (b *builder) fieldDeclaration(n *sitter.Node, parent *cursor.Node) {
	typ := n.ChildByFieldName("type")
	owned := ownsTag(typ)
	decls := b.declarators(n)
	if owned {
		b.tag(typ, parent, true, "")
	} else if len(decls) == 0 {
		b.visit(typ, parent)
	}

	for _, d := range decls {
		info := unwrapDeclarator(d)
		if info.name == nil {
			continue
		}
		if info.function != nil {
			fn := b.declareFunction(n, info, parent, false)
			if !owned {
				b.visit(typ, fn)
			}
			b.parameters(info.function, fn, false)
			continue
		}
		name, _ := b.declName(info.name)
		field := &cursor.Node{
			NodeKind: cursor.KindFieldDecl,
			Name:     name,
			Display:  name,
			Loc:      b.loc(info.name),
			ID:       "c:" + b.scopePrefix() + "@FI@" + name,
			Storage:  cursor.StorageInvalid,
			Defines:  true,
		}
		parent.Append(field)
		b.declareMember(name, field)
		if !owned {
			b.visit(typ, field)
		}
		for _, e := range info.extra {
			b.visit(e, field)
		}
		b.visit(info.value, field)
	}
	b.visit(n.ChildByFieldName("default_value"), parent)
	for _, c := range namedChildren(n) {
		if c.Type() == "bitfield_clause" {
			b.visitChildren(c, parent)
		}
	}
}

func (b *builder) typeDefinition(n *sitter.Node, parent *cursor.Node) {
	typ := n.ChildByFieldName("type")
	decls := b.declarators(n)

	firstName := ""
	for _, d := range decls {
		if info := unwrapDeclarator(d); info.name != nil {
			firstName, _ = b.declName(info.name)
			break
		}
	}
	owned := ownsTag(typ)
	if owned {
		b.tag(typ, parent, true, firstName)
	}

	for _, d := range decls {
		info := unwrapDeclarator(d)
		if info.name == nil {
			continue
		}
		name, _ := b.declName(info.name)
		td := &cursor.Node{
			NodeKind: cursor.KindTypedefDecl,
			Name:     name,
			Display:  name,
			Loc:      b.loc(info.name),
			ID:       b.typedefUSR(name),
			Storage:  cursor.StorageInvalid,
			Defines:  true,
		}
		parent.Append(td)
		b.declare(name, td)
		if !owned {
			b.visit(typ, td)
		}
	}
}

// aliasDeclaration handles C++ "using name = type;".
func (b *builder) aliasDeclaration(n *sitter.Node, parent *cursor.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := b.text(nameNode)
	alias := &cursor.Node{
		NodeKind: cursor.KindTypeAliasDecl,
		Name:     name,
		Display:  name,
		Loc:      b.loc(nameNode),
		ID:       b.typedefUSR(name),
		Storage:  cursor.StorageInvalid,
		Defines:  true,
	}
	parent.Append(alias)
	b.declare(name, alias)
	b.visit(n.ChildByFieldName("type"), alias)
}

// tag handles struct, union, enum and class specifiers. A specifier with a
// body, or a standalone one such as "struct s;", declares the tag; any
// other is a type reference.
func (b *builder) tag(n *sitter.Node, parent *cursor.Node, standalone bool, typedefName string) {
	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	name := ""
	if nameNode != nil {
		name, _ = b.declName(nameNode)
	}

	if body == nil && !standalone {
		if name == "" {
			return
		}
		spelling := name
		if b.tu.lang == LangC {
			spelling = tagKeywords[n.Type()] + " " + name
		}
		b.bind(name, nsTag, b.add(parent, cursor.KindTypeRef, spelling, nameNode))
		return
	}

	letter := tagLetters[n.Type()]
	usr := ""
	if name != "" || typedefName != "" {
		usr = "c:" + b.scopePrefix() + tagSegment(letter, name, typedefName)
	}
	at := n
	if nameNode != nil {
		at = nameNode
	}
	decl := &cursor.Node{
		NodeKind: tagKinds[n.Type()],
		Name:     name,
		Display:  name,
		Loc:      b.loc(at),
		ID:       usr,
		Storage:  cursor.StorageInvalid,
		Defines:  body != nil,
	}
	parent.Append(decl)
	if name != "" {
		b.declareTag(name, decl)
	}
	if body == nil {
		return
	}

	for _, c := range namedChildren(n) {
		if c.Type() == "base_class_clause" {
			b.visitChildren(c, decl)
		}
	}

	b.prefix = append(b.prefix, tagSegment(letter, name, typedefName))
	isEnum := decl.NodeKind == cursor.KindEnumDecl
	if !isEnum {
		b.classes = append(b.classes, name)
	}
	for _, c := range namedChildren(body) {
		if c.Type() == "enumerator" {
			b.enumerator(c, decl)
			continue
		}
		b.visit(c, decl)
	}
	if !isEnum {
		b.classes = b.classes[:len(b.classes)-1]
	}
	b.prefix = b.prefix[:len(b.prefix)-1]
}

// enumerator declares an enum constant in the enclosing ordinary scope.
func (b *builder) enumerator(n *sitter.Node, enum *cursor.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := b.text(nameNode)
	node := &cursor.Node{
		NodeKind: cursor.KindEnumConstantDecl,
		Name:     name,
		Display:  name,
		Loc:      b.loc(nameNode),
		ID:       "c:" + b.scopePrefix() + "@" + name,
		Storage:  cursor.StorageInvalid,
		Defines:  true,
	}
	enum.Append(node)
	b.visit(n.ChildByFieldName("value"), node)
	b.declare(name, node)
}

func (b *builder) namespaceDefinition(n *sitter.Node, parent *cursor.Node) {
	nameNode := n.ChildByFieldName("name")
	name := b.text(nameNode)
	segment := "@aN"
	if name != "" {
		segment = "@N@" + name
	}
	at := n
	if nameNode != nil {
		at = nameNode
	}
	ns := &cursor.Node{
		NodeKind: cursor.KindNamespace,
		Name:     name,
		Display:  name,
		Loc:      b.loc(at),
		ID:       "c:" + b.scopePrefix() + segment,
		Storage:  cursor.StorageInvalid,
		Defines:  true,
	}
	parent.Append(ns)
	b.prefix = append(b.prefix, segment)
	b.visit(n.ChildByFieldName("body"), ns)
	b.prefix = b.prefix[:len(b.prefix)-1]
}

// ---------------------------------------------------------------------------
// Statements and references
// ---------------------------------------------------------------------------

func (b *builder) labeledStatement(n *sitter.Node, parent *cursor.Node) {
	label := n.ChildByFieldName("label")
	if label == nil {
		b.visitChildren(n, parent)
		return
	}
	name := b.text(label)
	stmt := b.add(parent, cursor.KindLabelStmt, name, label)
	if b.fn.labels == nil {
		b.fn.labels = make(map[string]*cursor.Node)
	}
	b.fn.labels[name] = stmt
	b.visitChildrenExcept(n, stmt, label)
}

func (b *builder) gotoStatement(n *sitter.Node, parent *cursor.Node) {
	stmt := b.add(parent, cursor.KindGotoStmt, "", n)
	label := n.ChildByFieldName("label")
	if label == nil {
		return
	}
	name := b.text(label)
	ref := b.add(stmt, cursor.KindLabelRef, name, label)
	if target, ok := b.fn.labels[name]; ok {
		ref.Ref = target
		return
	}
	b.fn.pending = append(b.fn.pending, pendingRef{name: name, nodes: []*cursor.Node{ref}})
}

// resolveLabels links gotos that jumped forward.
func (b *builder) resolveLabels() {
	for _, p := range b.fn.pending {
		target, ok := b.fn.labels[p.name]
		if !ok {
			continue
		}
		for _, n := range p.nodes {
			n.Ref = target
		}
	}
	b.fn.pending = nil
}

func (b *builder) callExpression(n *sitter.Node, parent *cursor.Node) {
	callee := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if callee == nil {
		b.visitChildren(n, parent)
		return
	}

	switch callee.Type() {
	case "identifier":
		name := b.text(callee)
		if def, ok := b.macros[name]; ok {
			b.visit(args, b.macroUse(n, parent, name, def))
			return
		}
		call := b.add(parent, cursor.KindCallExpr, name, n)
		b.bind(name, nsOrdinary, call, b.add(call, cursor.KindDeclRefExpr, name, callee))
		b.visit(args, call)
	case "field_expression":
		field := callee.ChildByFieldName("field")
		name := b.text(field)
		call := b.add(parent, cursor.KindCallExpr, name, n)
		b.fieldExpression(callee, call, call)
		b.visit(args, call)
	case "qualified_identifier":
		name, _ := b.declName(callee)
		call := b.add(parent, cursor.KindCallExpr, name, n)
		b.qualifiedIdentifier(callee, call, call)
		b.visit(args, call)
	default:
		call := b.add(parent, cursor.KindCallExpr, "", n)
		b.visit(callee, call)
		b.visit(args, call)
	}
}

// fieldExpression handles "a.b" and "a->b". Extra nodes, such as the call
// wrapping a method invocation, are linked to the same member.
func (b *builder) fieldExpression(n *sitter.Node, parent *cursor.Node, extra ...*cursor.Node) {
	field := n.ChildByFieldName("field")
	if field == nil || field.Type() != "field_identifier" {
		b.visitChildren(n, parent)
		return
	}
	name := b.text(field)
	member := b.add(parent, cursor.KindMemberRefExpr, name, field)
	b.visit(n.ChildByFieldName("argument"), member)
	b.bind(name, nsMember, append(extra, member)...)
}

// fieldDesignator handles ".x = 1" in an initializer list.
func (b *builder) fieldDesignator(n *sitter.Node, parent *cursor.Node) {
	for _, c := range namedChildren(n) {
		if c.Type() == "field_identifier" {
			name := b.text(c)
			b.bind(name, nsMember, b.add(parent, cursor.KindMemberRef, name, c))
		}
	}
}

func (b *builder) identifier(n *sitter.Node, parent *cursor.Node) {
	name := b.text(n)
	if def, ok := b.macros[name]; ok {
		b.macroUse(n, parent, name, def)
		return
	}
	b.bind(name, nsOrdinary, b.add(parent, cursor.KindDeclRefExpr, name, n))
}

func (b *builder) typeIdentifier(n *sitter.Node, parent *cursor.Node) {
	name := b.text(n)
	if def, ok := b.macros[name]; ok {
		b.macroUse(n, parent, name, def)
		return
	}
	b.bind(name, nsType, b.add(parent, cursor.KindTypeRef, name, n))
}

// qualifiedIdentifier resolves "ns::name" by its final component.
func (b *builder) qualifiedIdentifier(n *sitter.Node, parent *cursor.Node, extra ...*cursor.Node) {
	last := n
	for last != nil && last.Type() == "qualified_identifier" {
		last = last.ChildByFieldName("name")
	}
	if last == nil {
		return
	}
	name, _ := b.declName(n)
	switch last.Type() {
	case "type_identifier", "template_type":
		b.bind(name, nsType, append(extra, b.add(parent, cursor.KindTypeRef, name, last))...)
	default:
		b.bind(name, nsOrdinary, append(extra, b.add(parent, cursor.KindDeclRefExpr, name, last))...)
	}
}

// linkDefinitions points every cursor at the definition of the entity it
// declares or references, when the unit contains one.
func linkDefinitions(root *cursor.Node) {
	defs := make(map[string]*cursor.Node)
	var all []*cursor.Node
	stack := []*cursor.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		all = append(all, n)
		if n.ID != "" && (n.Defines || n.NodeKind == cursor.KindMacroDefinition) {
			if _, ok := defs[n.ID]; !ok {
				defs[n.ID] = n
			}
		}
		stack = append(stack, n.ChildNodes...)
	}
	for _, n := range all {
		usr := n.ID
		if usr == "" && n.Ref != nil {
			usr = n.Ref.ID
		}
		if usr == "" {
			continue
		}
		n.Def = defs[usr]
	}
}
