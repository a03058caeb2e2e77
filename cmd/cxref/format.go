package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

// formatOccurrencesText formats occurrences as aligned columns.
func formatOccurrencesText(w io.Writer, occs []CLIOccurrence) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tROLE\tCURSOR\tSTORAGE\tUNIT")
	for _, o := range occs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			locationText(o), o.Role, o.Cursor, o.StorageClass, o.Unit)
	}
	tw.Flush()
}

// formatSymbolsText formats symbols as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\n", s.Key, s.DisplayName)
	}
	tw.Flush()
}

// formatSymbolInfosText prints each symbol followed by its occurrences.
func formatSymbolInfosText(w io.Writer, infos []CLISymbolInfo) {
	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  %s\n", info.Key, info.DisplayName)
		fmt.Fprintf(w, "  %d declaration(s), %d definition(s), %d reference(s)\n",
			len(info.Declarations), len(info.Definitions), len(info.References))
		var all []CLIOccurrence
		all = append(all, info.Declarations...)
		all = append(all, info.Definitions...)
		all = append(all, info.References...)
		if len(all) > 0 {
			formatOccurrencesText(w, all)
		}
	}
}

// formatUnitsText formats units as aligned columns.
func formatUnitsText(w io.Writer, units []CLIUnit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tFINGERPRINT\tINDEXED")
	for _, u := range units {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Path, u.Fingerprint, u.LastIndexed)
	}
	tw.Flush()
}

func formatStringsText(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

func locationText(o CLIOccurrence) string {
	file := o.File
	if file == "" {
		file = "<none>"
	}
	return fmt.Sprintf("%s:%d:%d", file, o.Line, o.Column)
}

// outputResultText dispatches on the result type to a text formatter.
func outputResultText(result CLIResult) error {
	w := os.Stdout
	switch v := result.Results.(type) {
	case []CLIOccurrence:
		formatOccurrencesText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLISymbolInfo:
		formatSymbolInfosText(w, v)
	case []CLIUnit:
		formatUnitsText(w, v)
	case []string:
		formatStringsText(w, v)
	default:
		return fmt.Errorf("no text format for %s results", result.Command)
	}
	return nil
}
