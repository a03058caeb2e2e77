package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/cxref/internal/cursor"
	"github.com/jward/cxref/internal/frontend"
)

var (
	flagASTSource   string
	flagASTDefines  []string
	flagASTIncludes []string
	flagASTStd      string
)

// stdinName stands in for the source path when -s is "-". Quoted includes
// resolve against the working directory.
const stdinName = "stdin.c"

var astCmd = &cobra.Command{
	Use:   "ast -s <source>",
	Short: "Print the cursor tree of a translation unit",
	Long: `Prints one cursor per line, indented by depth: kind, spelling, location and USR when it has one.
Use -s - to read the source from stdin; it is parsed as C unless --std says otherwise.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagASTSource == "" {
			return fmt.Errorf("no source file given (use -s)")
		}
		std := cfg.Index.Std
		if flagASTStd != "" {
			std = flagASTStd
		}
		tu, err := parseForAST(context.Background(), frontend.Options{
			Source:      flagASTSource,
			Defines:     append(append([]string{}, cfg.Index.Defines...), flagASTDefines...),
			IncludeDirs: append(append([]string{}, cfg.Index.IncludeDirs...), flagASTIncludes...),
			Std:         std,
			Logger:      logger,
		}, cmd.InOrStdin())
		if err != nil {
			return err
		}
		printTree(cmd.OutOrStdout(), tu.Cursor())
		return nil
	},
}

func init() {
	astCmd.Flags().StringVarP(&flagASTSource, "source", "s", "", "input file, or - for stdin")
	astCmd.Flags().StringArrayVarP(&flagASTDefines, "define", "D", nil, "define a macro, NAME or NAME=VALUE")
	astCmd.Flags().StringArrayVarP(&flagASTIncludes, "include", "I", nil, "add an include directory")
	astCmd.Flags().StringVar(&flagASTStd, "std", "", "language standard, e.g. c11 or c++17")
}

// parseForAST parses opts.Source, or stdin when the source is "-".
func parseForAST(ctx context.Context, opts frontend.Options, stdin io.Reader) (*frontend.TranslationUnit, error) {
	if opts.Source != "-" {
		return frontend.Parse(ctx, opts)
	}
	src, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	opts.Source = stdinName
	return frontend.ParseSource(ctx, opts, src)
}

// printTree writes the tree rooted at root in pre-order. It walks with an
// explicit stack, like index.Walk.
func printTree(w io.Writer, root cursor.Cursor) {
	type frame struct {
		c     cursor.Cursor
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fmt.Fprintf(w, "%s%s", strings.Repeat("  ", f.depth), f.c.Kind())
		if name := f.c.Spelling(); name != "" {
			fmt.Fprintf(w, " %q", name)
		}
		fmt.Fprintf(w, " %s", f.c.Location())
		if usr := f.c.USR(); usr != "" {
			fmt.Fprintf(w, " [%s]", usr)
		}
		fmt.Fprintln(w)

		children := f.c.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.depth + 1})
		}
	}
}
