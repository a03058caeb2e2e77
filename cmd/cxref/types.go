package main

import (
	"github.com/jward/cxref"
	"github.com/jward/cxref/internal/store"
)

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command     string   `json:"command"`
	Results     any      `json:"results"`
	TotalCount  *int     `json:"total_count,omitempty"`
	Error       string   `json:"error,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// CLISymbol is a stored symbol without its occurrences.
type CLISymbol struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

// CLISymbolInfo is a symbol with every occurrence, bucketed by role.
type CLISymbolInfo struct {
	Key          string          `json:"key"`
	DisplayName  string          `json:"display_name"`
	Declarations []CLIOccurrence `json:"declarations"`
	Definitions  []CLIOccurrence `json:"definitions"`
	References   []CLIOccurrence `json:"references"`
}

// CLIOccurrence is one sighting of a symbol.
type CLIOccurrence struct {
	File         string `json:"file"`
	Line         int    `json:"line"`
	Column       int    `json:"column"`
	Cursor       string `json:"cursor"`
	StorageClass string `json:"storage_class"`
	Role         string `json:"role"`
	Unit         string `json:"unit"`
}

// CLIUnit is one indexed translation unit.
type CLIUnit struct {
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint"`
	LastIndexed string `json:"last_indexed"`
}

func symbolToCLI(sym *store.Symbol) CLISymbol {
	return CLISymbol{Key: sym.USR, DisplayName: sym.DisplayName}
}

func occurrenceToCLI(o *store.Occurrence) CLIOccurrence {
	return CLIOccurrence{
		File:         o.Filename,
		Line:         o.Line,
		Column:       o.Column,
		Cursor:       o.Cursor,
		StorageClass: o.StorageClass,
		Role:         string(o.Role),
		Unit:         o.UnitPath,
	}
}

func occurrencesToCLI(occs []*store.Occurrence) []CLIOccurrence {
	out := make([]CLIOccurrence, len(occs))
	for i, o := range occs {
		out[i] = occurrenceToCLI(o)
	}
	return out
}

func symbolInfoToCLI(info *cxref.SymbolInfo) CLISymbolInfo {
	return CLISymbolInfo{
		Key:          info.Key,
		DisplayName:  info.DisplayName,
		Declarations: occurrencesToCLI(info.Declarations),
		Definitions:  occurrencesToCLI(info.Definitions),
		References:   occurrencesToCLI(info.References),
	}
}

func unitToCLI(u *store.Unit) CLIUnit {
	return CLIUnit{
		Path:        u.Path,
		Fingerprint: u.Fingerprint,
		LastIndexed: u.LastIndexed.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
