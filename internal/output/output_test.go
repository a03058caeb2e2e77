package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cxref/internal/cursor"
	"github.com/jward/cxref/internal/index"
)

func sampleTable() *index.SymbolTable {
	table := index.NewSymbolTable()
	table.Merge("c:@F@foo", "foo()", index.Occurrence{
		Location:     cursor.Location{File: "a.c", Line: 1, Column: 6},
		Cursor:       "CursorKind.FUNCTION_DECL",
		StorageClass: "StorageClass.NONE",
	}, index.Declaration)
	table.Merge("c:@F@foo", "foo", index.Occurrence{
		Location:     cursor.Location{File: "a.c", Line: 4, Column: 3},
		Cursor:       "CursorKind.CALL_EXPR",
		StorageClass: "StorageClass.INVALID",
	}, index.Reference)
	table.Merge("c:macro@DEBUG", "DEBUG", index.Occurrence{
		Cursor:       "CursorKind.MACRO_DEFINITION",
		StorageClass: "StorageClass.INVALID",
	}, index.Definition)
	return table
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatForPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, FormatYAML, FormatForPath("a.c.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("A.YML"))
	assert.Equal(t, FormatJSON, FormatForPath("a.c.indx"))
}

func TestEncodeJSON_Shape(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleTable(), FormatJSON))

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc, 2)

	foo := doc["c:@F@foo"]
	assert.Equal(t, "foo()", foo["displayname"])
	assert.Equal(t, []any{}, foo["definition"])
	decls := foo["declaration"].([]any)
	require.Len(t, decls, 1)
	decl := decls[0].(map[string]any)
	assert.Equal(t, "CursorKind.FUNCTION_DECL", decl["cursor"])
	assert.Equal(t, "StorageClass.NONE", decl["storage_class"])
	assert.Equal(t, map[string]any{"filename": "a.c", "line": float64(1), "column": float64(6)}, decl["location"])

	macro := doc["c:macro@DEBUG"]["definition"].([]any)[0].(map[string]any)
	assert.Nil(t, macro["location"].(map[string]any)["filename"])
}

func TestEncodeJSON_TwoSpaceIndent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleTable(), FormatJSON))
	assert.Contains(t, buf.String(), "\n  \"c:@F@foo\": {\n    \"displayname\": \"foo()\"")
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleTable(), FormatYAML))
	assert.Contains(t, buf.String(), "displayname: foo()")

	got, err := Decode(&buf, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, sampleTable().Entries(), got.Entries())
}

func TestEncode_EmptyDisplayName(t *testing.T) {
	t.Parallel()
	table := index.NewSymbolTable()
	table.Merge("c:@SA@anon", "", index.Occurrence{
		Location:     cursor.Location{File: "a.c", Line: 2, Column: 1},
		Cursor:       "CursorKind.STRUCT_DECL",
		StorageClass: "StorageClass.NONE",
	}, index.Definition)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, table, FormatJSON))
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, NoName, doc["c:@SA@anon"]["displayname"])

	got, err := Decode(&buf, FormatJSON)
	require.NoError(t, err)
	entry, ok := got.Entry("c:@SA@anon")
	require.True(t, ok)
	assert.Empty(t, entry.DisplayName)

	got.Merge("c:@SA@anon", "box", index.Occurrence{}, 0)
	entry, _ = got.Entry("c:@SA@anon")
	assert.Equal(t, "box", entry.DisplayName)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "a.c.indx")
	require.NoError(t, Save(path, sampleTable(), FormatJSON))

	got, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, sampleTable().Entries(), got.Entries())
}

func TestLoad_MalformedIsEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broken.indx")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	got, err := Load(path, nil)
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "nope.indx"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncode_UnknownFormat(t *testing.T) {
	t.Parallel()
	err := Encode(&bytes.Buffer{}, sampleTable(), Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
