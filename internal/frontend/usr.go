package frontend

import (
	"fmt"
	"strings"

	"github.com/jward/cxref/internal/cursor"
)

// USRs follow clang's scheme closely enough that identities agree across
// translation units: external entities are global, internal ones carry the
// file name, and locals also carry the byte offset of their declaration.
//
//	c:@F@foo              external function
//	c:a.c@F@helper        static function
//	c:@S@point@FI@x       field
//	c:@E@color@RED        enumerator
//	c:a.c@T@myint         typedef
//	c:a.c@120@F@main@i    local variable
//	c:a.c@8@macro@MAX     macro
//
// C++ functions append "#" and do not encode parameter types, so overloads
// share an identity.

var tagLetters = map[string]string{
	"struct_specifier": "S",
	"class_specifier":  "S",
	"union_specifier":  "U",
	"enum_specifier":   "E",
}

var tagKinds = map[string]cursor.Kind{
	"struct_specifier": cursor.KindStructDecl,
	"class_specifier":  cursor.KindClassDecl,
	"union_specifier":  cursor.KindUnionDecl,
	"enum_specifier":   cursor.KindEnumDecl,
}

var tagKeywords = map[string]string{
	"struct_specifier": "struct",
	"class_specifier":  "class",
	"union_specifier":  "union",
	"enum_specifier":   "enum",
}

func (b *builder) functionUSR(name string, quals []string, storage cursor.StorageClass) string {
	var sb strings.Builder
	sb.WriteString("c:")
	if storage == cursor.StorageStatic && len(b.classes) == 0 {
		sb.WriteString(b.base)
	}
	sb.WriteString(b.scopePrefix())
	sb.WriteString(b.qualifierPrefix(quals))
	sb.WriteString("@F@")
	sb.WriteString(name)
	if b.tu.lang == LangCPP {
		sb.WriteString("#")
	}
	return sb.String()
}

func (b *builder) localUSR(offset uint32, function, name string) string {
	return fmt.Sprintf("c:%s@%d@F@%s@%s", b.base, offset, function, name)
}

func (b *builder) varUSR(name string, quals []string, storage cursor.StorageClass, offset uint32) string {
	if b.fn.name != "" && storage != cursor.StorageExtern {
		return b.localUSR(offset, b.fn.name, name)
	}
	prefix := b.scopePrefix() + b.qualifierPrefix(quals)
	if storage == cursor.StorageStatic && len(b.classes) == 0 {
		return "c:" + b.base + prefix + "@" + name
	}
	return "c:" + prefix + "@" + name
}

func (b *builder) typedefUSR(name string) string {
	return "c:" + b.base + b.scopePrefix() + "@T@" + name
}

func (b *builder) macroUSR(offset uint32, name string) string {
	return fmt.Sprintf("c:%s@%d@macro@%s", b.base, offset, name)
}

// tagSegment is the USR segment a tag contributes to its members. Unnamed
// tags take the name of the typedef that introduces them when there is
// one.
func tagSegment(letter, name, typedefName string) string {
	switch {
	case name != "":
		return "@" + letter + "@" + name
	case typedefName != "":
		return "@" + letter + "A@" + typedefName
	}
	return "@" + letter + "a"
}
