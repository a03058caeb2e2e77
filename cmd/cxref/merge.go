package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/cxref/internal/index"
	"github.com/jward/cxref/internal/output"
)

var flagMergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge -o <output> <index>...",
	Short: "Merge per-unit index files into one",
	Long: `Reads each index file and writes the union of their tables. Occurrences
seen by several units appear once. A malformed input is reported and
treated as empty; a missing one is an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagMergeOutput == "" {
			return fmt.Errorf("no output file given (use -o)")
		}
		merged, err := mergeFiles(args)
		if err != nil {
			return err
		}
		if err := output.Save(flagMergeOutput, merged, output.FormatForPath(flagMergeOutput)); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Merged %d file(s), %d symbol(s) into %s\n", len(args), merged.Len(), flagMergeOutput)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&flagMergeOutput, "output", "o", "", "merged index file")
}

func mergeFiles(paths []string) (*index.SymbolTable, error) {
	merged := index.NewSymbolTable()
	for _, path := range paths {
		table, err := output.Load(path, logger)
		if err != nil {
			return nil, err
		}
		merged.MergeTable(table)
	}
	return merged, nil
}
