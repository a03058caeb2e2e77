// Package frontend parses C and C++ translation units with tree-sitter and
// presents them through the cursor model: declarations carry clang-style
// USRs, and uses link to the declarations they refer to.
//
// The front end follows #include directives through the include path and
// reads every conditional-compilation branch; it does not evaluate the
// preprocessor.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/jward/cxref/internal/cursor"
	"github.com/jward/cxref/internal/logging"
)

// ErrUnsupportedLanguage is returned for sources that are neither C nor C++.
var ErrUnsupportedLanguage = errors.New("frontend: unsupported language")

// maxIncludeDepth bounds #include nesting.
const maxIncludeDepth = 200

// Canonical language names.
const (
	LangC   = "c"
	LangCPP = "cpp"
)

var extToLanguage = map[string]string{
	".c":   LangC,
	".h":   LangC,
	".cc":  LangCPP,
	".cpp": LangCPP,
	".cxx": LangCPP,
	".c++": LangCPP,
	".hh":  LangCPP,
	".hpp": LangCPP,
	".hxx": LangCPP,
}

var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			LangC:   c.GetLanguage(),
			LangCPP: cpp.GetLanguage(),
		}
	})
}

// LanguageFor picks the grammar for a source file. A -std value such as
// "c11", "gnu99", "c++17" or "gnu++20" wins over the file extension.
func LanguageFor(path, std string) (string, error) {
	std = strings.ToLower(strings.TrimSpace(std))
	switch {
	case strings.HasPrefix(std, "c++"), strings.HasPrefix(std, "gnu++"):
		return LangCPP, nil
	case strings.HasPrefix(std, "c"), strings.HasPrefix(std, "gnu"), strings.HasPrefix(std, "iso9899"):
		return LangC, nil
	case std != "":
		return "", fmt.Errorf("%w: -std=%s", ErrUnsupportedLanguage, std)
	}
	lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}
	return lang, nil
}

// IsSource reports whether path has a C or C++ extension.
func IsSource(path string) bool {
	_, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Options configures a parse.
type Options struct {
	Source      string
	Defines     []string // NAME or NAME=VALUE
	IncludeDirs []string
	Std         string
	Logger      *slog.Logger
}

// TranslationUnit is a parsed source file. It implements
// cursor.TranslationUnit.
type TranslationUnit struct {
	path     string
	lang     string
	root     *cursor.Node
	includes []string
	system   map[string]bool
}

var _ cursor.TranslationUnit = (*TranslationUnit)(nil)

func (tu *TranslationUnit) Spelling() string      { return tu.path }
func (tu *TranslationUnit) Cursor() cursor.Cursor { return tu.root }
func (tu *TranslationUnit) Includes() []string    { return tu.includes }

// Root returns the root cursor as a *cursor.Node.
func (tu *TranslationUnit) Root() *cursor.Node { return tu.root }

// Language returns LangC or LangCPP.
func (tu *TranslationUnit) Language() string { return tu.lang }

// IsSystem reports whether path was found through the include directories
// rather than next to the file that included it.
func (tu *TranslationUnit) IsSystem(path string) bool { return tu.system[path] }

// Parse reads opts.Source and everything it includes.
func Parse(ctx context.Context, opts Options) (*TranslationUnit, error) {
	lang, err := LanguageFor(opts.Source, opts.Std)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("frontend: read %s: %w", opts.Source, err)
	}
	return parse(ctx, opts, lang, src)
}

// ParseSource parses src as if it were the contents of opts.Source.
// Includes are still read from disk.
func ParseSource(ctx context.Context, opts Options, src []byte) (*TranslationUnit, error) {
	lang, err := LanguageFor(opts.Source, opts.Std)
	if err != nil {
		return nil, err
	}
	return parse(ctx, opts, lang, src)
}

func parse(ctx context.Context, opts Options, lang string, src []byte) (*TranslationUnit, error) {
	initGrammars()
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(langToGrammar[lang])

	tu := &TranslationUnit{
		path:   opts.Source,
		lang:   lang,
		system: make(map[string]bool),
		root: &cursor.Node{
			NodeKind: cursor.KindTranslationUnit,
			Name:     opts.Source,
			Display:  opts.Source,
			Storage:  cursor.StorageInvalid,
		},
	}
	b := newBuilder(tu, parser, opts, logger)
	defer b.close()

	b.defineCommandLine(opts.Defines)
	if err := b.parseFile(ctx, opts.Source, src, false); err != nil {
		return nil, err
	}
	b.resolvePending()
	linkDefinitions(tu.root)
	return tu, nil
}

// resolveInclude finds an included file. Quoted names are looked up next
// to the including file first; both forms then search the include
// directories in order.
func (b *builder) resolveInclude(name string, quoted bool) (path string, system bool, ok bool) {
	if filepath.IsAbs(name) {
		if fileExists(name) {
			return filepath.Clean(name), false, true
		}
		return "", false, false
	}
	if quoted {
		candidate := filepath.Join(filepath.Dir(b.file), name)
		if fileExists(candidate) {
			return filepath.Clean(candidate), false, true
		}
	}
	for _, dir := range b.opts.IncludeDirs {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return filepath.Clean(candidate), true, true
		}
	}
	return "", false, false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// parseFile parses one file of the unit and appends its cursors to the
// root.
func (b *builder) parseFile(ctx context.Context, path string, src []byte, system bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.tu.includes = append(b.tu.includes, path)
	b.parsed[path] = true
	if system {
		b.tu.system[path] = true
	}

	tree, err := b.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("frontend: parse %s: %w", path, err)
	}
	b.trees = append(b.trees, tree)

	saved := b.fileState
	b.fileState = fileState{file: path, base: filepath.Base(path), src: src}
	defer func() { b.fileState = saved }()

	root := tree.RootNode()
	if root.HasError() {
		b.logger.Debug("syntax errors in file, continuing", "path", path)
	}
	b.ctx = ctx
	b.visitChildren(root, b.tu.root)
	return b.err
}

// include handles one #include directive.
func (b *builder) include(n *sitter.Node, parent *cursor.Node) {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	raw := b.text(pathNode)
	quoted := pathNode.Type() == "string_literal"
	name := strings.Trim(raw, "\"<>")

	parent.Append(&cursor.Node{
		NodeKind: cursor.KindInclusionDirective,
		Name:     name,
		Display:  name,
		Loc:      b.loc(pathNode),
		Storage:  cursor.StorageInvalid,
	})

	resolved, system, ok := b.resolveInclude(name, quoted)
	if !ok {
		b.logger.Debug("include not found", "name", name, "from", b.file)
		return
	}
	if b.parsed[resolved] {
		b.tu.includes = append(b.tu.includes, resolved)
		return
	}
	if b.depth >= maxIncludeDepth {
		b.logger.Warn("include depth limit reached", "name", name, "from", b.file)
		return
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		b.logger.Warn("cannot read include", "path", resolved, "error", err)
		return
	}

	b.depth++
	defer func() { b.depth-- }()
	if err := b.parseFile(b.ctx, resolved, data, system); err != nil {
		b.err = err
	}
}

// defineCommandLine records -D macros as file-less definitions.
func (b *builder) defineCommandLine(defines []string) {
	for _, d := range defines {
		name, _, _ := strings.Cut(strings.TrimSpace(d), "=")
		if name == "" {
			continue
		}
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i]
		}
		node := &cursor.Node{
			NodeKind: cursor.KindMacroDefinition,
			Name:     name,
			Display:  name,
			ID:       "c:macro@" + name,
			Storage:  cursor.StorageInvalid,
		}
		b.tu.root.Append(node)
		b.macros[name] = node
	}
}
