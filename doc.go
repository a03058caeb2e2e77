// Package cxref builds cross-reference indexes of C and C++ translation
// units. For every named entity (function, type, variable, macro, label,
// ...) it records where the entity is declared, defined and referenced,
// merged into one entry keyed by a stable identity, normally the entity's
// USR.
//
// # Pipeline
//
// Indexing one source file runs in three steps:
//
//  1. Parse: the tree-sitter front end in internal/frontend reads the
//     source and every header it includes, producing a cursor tree in
//     the shape libclang would.
//
//  2. Walk: [BuildIndex] visits every cursor, classifies it as a
//     declaration, definition or reference and merges an occurrence into
//     an [index.SymbolTable] under the cursor's identity key.
//
//  3. Emit: the table is written as a JSON or YAML document, the
//     optional Makefile rule from [BuildDependencyRule] lists every file
//     the unit read, and the optional SQLite store receives the unit so
//     the whole project can be queried.
//
// # Usage
//
//	e, err := cxref.New(cxref.WithStore(".cxref/index.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	res, err := e.IndexFile(ctx, cxref.Request{Source: "main.c"})
//
//	q := e.Query()
//	refs, err := q.Occurrences("c:@F@main", store.RoleReference)
//
// # Filters
//
// [WithDependencyFilter] and [WithSymbolFilter] take Risor expressions,
// inline or as "@path" to a script file. A dependency filter sees path and
// system; a symbol filter sees key, displayname and the three bucket
// counts. A falsy result drops the candidate.
package cxref
