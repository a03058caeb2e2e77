package index

import "github.com/jward/cxref/internal/cursor"

// IsReference reports whether kind names a use of an entity: the reference
// group, DECL_REF_EXPR through CALL_EXPR, or a macro instantiation.
func IsReference(kind cursor.Kind) bool {
	if kind >= cursor.KindFirstRef && kind <= cursor.KindLastRef {
		return true
	}
	if kind >= cursor.KindDeclRefExpr && kind <= cursor.KindCallExpr {
		return true
	}
	return kind == cursor.KindMacroInstantiation
}

// IsDeclaration reports whether kind is in the STRUCT_DECL..OBJC_DYNAMIC_DECL
// range or is a label statement.
func IsDeclaration(kind cursor.Kind) bool {
	if kind >= cursor.KindStructDecl && kind <= cursor.KindObjCDynamicDecl {
		return true
	}
	return kind == cursor.KindLabelStmt
}

// IsDefinition reports whether c defines its entity.
func IsDefinition(c cursor.Cursor) bool {
	return c.IsDefinition() || c.Kind() == cursor.KindMacroDefinition
}

// IsWanted reports whether c is recorded in the index at all.
func IsWanted(c cursor.Cursor) bool {
	kind := c.Kind()
	return IsDefinition(c) || IsDeclaration(kind) || IsReference(kind) || kind.IsPreprocessing()
}

// OccurrenceKinds returns the buckets c is recorded under. Definition and
// Declaration are exclusive (a definition is never also listed as a
// declaration); Reference is added independently.
func OccurrenceKinds(c cursor.Cursor) Kinds {
	var kinds Kinds
	switch {
	case IsDefinition(c):
		kinds |= Definition
	case IsDeclaration(c.Kind()):
		kinds |= Declaration
	}
	if IsReference(c.Kind()) {
		kinds |= Reference
	}
	return kinds
}
