package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/cxref"
	"github.com/jward/cxref/internal/store"
)

// defaultDBPath is used when neither --db nor [store] path is set.
var defaultDBPath = filepath.Join(".cxref", "index.db")

// maxSuggestions bounds the "did you mean" list on a missed lookup.
const maxSuggestions = 3

var (
	flagDB     string
	flagFormat string
	flagLimit  int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the project database",
	Long:  "Look up symbols recorded by 'cxref index --db'. A symbol argument is a USR key or a display name.",
}

func init() {
	queryCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: [store] path or "+defaultDBPath+")")
	queryCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "maximum search results (0 for all)")

	queryCmd.AddCommand(symbolCmd)
	queryCmd.AddCommand(newRoleCmd("refs", store.RoleReference))
	queryCmd.AddCommand(newRoleCmd("defs", store.RoleDefinition))
	queryCmd.AddCommand(newRoleCmd("decls", store.RoleDeclaration))
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(dependentsCmd)
	queryCmd.AddCommand(unitsCmd)
}

var symbolCmd = &cobra.Command{
	Use:   "symbol <key-or-name>",
	Short: "Show a symbol with all its occurrences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, closeFn, err := openQuery()
		if err != nil {
			return outputError("symbol", err)
		}
		defer closeFn()

		infos, err := q.Lookup(args[0])
		if err != nil {
			return outputLookupError("symbol", q, args[0], err)
		}
		results := make([]CLISymbolInfo, len(infos))
		for i, info := range infos {
			results[i] = symbolInfoToCLI(info)
		}
		total := len(results)
		return outputResult(CLIResult{Command: "symbol", Results: results, TotalCount: &total})
	},
}

// newRoleCmd builds the refs/defs/decls subcommands, which differ only in
// the occurrence bucket they list.
func newRoleCmd(name string, role store.Role) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <key-or-name>",
		Short: fmt.Sprintf("List %ss of a symbol", role),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, closeFn, err := openQuery()
			if err != nil {
				return outputError(name, err)
			}
			defer closeFn()

			occs, err := q.Occurrences(args[0], role)
			if err != nil {
				return outputLookupError(name, q, args[0], err)
			}
			results := occurrencesToCLI(occs)
			total := len(results)
			return outputResult(CLIResult{Command: name, Results: results, TotalCount: &total})
		},
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <substring>",
	Short: "Find symbols whose key or name contains a substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, closeFn, err := openQuery()
		if err != nil {
			return outputError("search", err)
		}
		defer closeFn()

		syms, err := q.Search(args[0], flagLimit)
		if err != nil {
			return outputError("search", err)
		}
		results := make([]CLISymbol, len(syms))
		for i, s := range syms {
			results[i] = symbolToCLI(s)
		}
		total := len(results)
		return outputResult(CLIResult{Command: "search", Results: results, TotalCount: &total})
	},
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <file>",
	Short: "List units that read a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, closeFn, err := openQuery()
		if err != nil {
			return outputError("dependents", err)
		}
		defer closeFn()

		units, err := q.Dependents(args[0])
		if err != nil {
			return outputError("dependents", err)
		}
		if units == nil {
			units = []string{}
		}
		total := len(units)
		return outputResult(CLIResult{Command: "dependents", Results: units, TotalCount: &total})
	},
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List indexed units",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, closeFn, err := openQuery()
		if err != nil {
			return outputError("units", err)
		}
		defer closeFn()

		units, err := q.Units()
		if err != nil {
			return outputError("units", err)
		}
		results := make([]CLIUnit, len(units))
		for i, u := range units {
			results[i] = unitToCLI(u)
		}
		total := len(results)
		return outputResult(CLIResult{Command: "units", Results: results, TotalCount: &total})
	},
}

// --- Helpers ---

func resolveQueryDB() string {
	switch {
	case flagDB != "":
		return flagDB
	case cfg != nil && cfg.Store.Path != "":
		return cfg.Store.Path
	}
	return defaultDBPath
}

// openQuery opens the database read side. The returned func closes it.
func openQuery() (*cxref.QueryBuilder, func(), error) {
	if flagFormat != "json" && flagFormat != "text" {
		return nil, nil, fmt.Errorf("unknown format %q (want json or text)", flagFormat)
	}
	dbPath := resolveQueryDB()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found: %s (run 'cxref index --db %s' first)", dbPath, dbPath)
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return cxref.NewQueryBuilder(s), func() { s.Close() }, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	return outputErrorWithSuggestions(command, err, nil)
}

// outputLookupError reports a failed lookup, offering the closest stored
// keys when the symbol was simply not found.
func outputLookupError(command string, q *cxref.QueryBuilder, arg string, err error) error {
	if !errors.Is(err, store.ErrNotFound) {
		return outputError(command, err)
	}
	suggestions, serr := q.Suggest(arg, maxSuggestions)
	if serr != nil {
		logger.Debug("suggest failed", "arg", arg, "error", serr)
	}
	return outputErrorWithSuggestions(command, fmt.Errorf("symbol %q not found", arg), suggestions)
}

func outputErrorWithSuggestions(command string, err error, suggestions []string) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		if len(suggestions) > 0 {
			fmt.Fprintf(os.Stderr, "Did you mean: %s\n", strings.Join(suggestions, ", "))
		}
		return err
	}
	result := CLIResult{
		Command:     command,
		Error:       err.Error(),
		Suggestions: suggestions,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}
