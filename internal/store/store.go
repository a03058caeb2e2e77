package store

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jward/cxref/internal/index"
)

// ErrNotFound is returned when a requested symbol is not in the store.
var ErrNotFound = errors.New("store: not found")

// Store is the SQLite project index: every indexed unit, the files it
// depended on, and the occurrences it contributed per symbol.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS units (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  fingerprint     TEXT NOT NULL DEFAULT '',
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS unit_deps (
  unit_id         INTEGER NOT NULL REFERENCES units(id),
  path            TEXT NOT NULL,
  UNIQUE(unit_id, path)
);

CREATE TABLE IF NOT EXISTS symbols (
  id              INTEGER PRIMARY KEY,
  usr             TEXT NOT NULL UNIQUE,
  display_name    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS occurrences (
  id              INTEGER PRIMARY KEY,
  unit_id         INTEGER NOT NULL REFERENCES units(id),
  symbol_id       INTEGER NOT NULL REFERENCES symbols(id),
  role            TEXT NOT NULL,
  filename        TEXT NOT NULL DEFAULT '',
  line            INTEGER NOT NULL,
  col             INTEGER NOT NULL,
  cursor          TEXT NOT NULL,
  storage_class   TEXT NOT NULL,
  UNIQUE(unit_id, symbol_id, role, filename, line, col, cursor, storage_class)
);

CREATE INDEX IF NOT EXISTS idx_unit_deps_path ON unit_deps(path);
CREATE INDEX IF NOT EXISTS idx_symbols_display_name ON symbols(display_name);
CREATE INDEX IF NOT EXISTS idx_occurrences_symbol ON occurrences(symbol_id, role);
CREATE INDEX IF NOT EXISTS idx_occurrences_unit ON occurrences(unit_id);
`

// SaveUnit replaces everything previously stored for rec.Path with rec,
// in one transaction.
func (s *Store) SaveUnit(rec UnitRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save unit: begin: %w", err)
	}
	defer tx.Rollback()

	if err := saveUnitTx(tx, rec, time.Now()); err != nil {
		return err
	}
	if err := pruneSymbolsTx(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func saveUnitTx(tx *sql.Tx, rec UnitRecord, now time.Time) error {
	var unitID int64
	err := tx.QueryRow(`
		INSERT INTO units (path, fingerprint, last_indexed) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
		  fingerprint = excluded.fingerprint,
		  last_indexed = excluded.last_indexed
		RETURNING id`,
		rec.Path, rec.Fingerprint, now,
	).Scan(&unitID)
	if err != nil {
		return fmt.Errorf("save unit %s: %w", rec.Path, err)
	}

	for _, q := range []string{
		"DELETE FROM occurrences WHERE unit_id = ?",
		"DELETE FROM unit_deps WHERE unit_id = ?",
	} {
		if _, err := tx.Exec(q, unitID); err != nil {
			return fmt.Errorf("save unit %s: clear: %w", rec.Path, err)
		}
	}

	depStmt, err := tx.Prepare("INSERT OR IGNORE INTO unit_deps (unit_id, path) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("save unit %s: prepare deps: %w", rec.Path, err)
	}
	defer depStmt.Close()
	for _, dep := range rec.Deps {
		if _, err := depStmt.Exec(unitID, dep); err != nil {
			return fmt.Errorf("save unit %s: dep %q: %w", rec.Path, dep, err)
		}
	}

	if rec.Table == nil {
		return nil
	}

	// The display name follows the symbol table's rule: a strictly longer
	// name replaces the stored one.
	symStmt, err := tx.Prepare(`
		INSERT INTO symbols (usr, display_name) VALUES (?, ?)
		ON CONFLICT(usr) DO UPDATE SET display_name = CASE
		  WHEN length(excluded.display_name) > length(symbols.display_name) THEN excluded.display_name
		  ELSE symbols.display_name
		END
		RETURNING id`)
	if err != nil {
		return fmt.Errorf("save unit %s: prepare symbols: %w", rec.Path, err)
	}
	defer symStmt.Close()

	occStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO occurrences
		  (unit_id, symbol_id, role, filename, line, col, cursor, storage_class)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save unit %s: prepare occurrences: %w", rec.Path, err)
	}
	defer occStmt.Close()

	entries := rec.Table.Entries()
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		entry := entries[key]
		var symbolID int64
		if err := symStmt.QueryRow(key, entry.DisplayName).Scan(&symbolID); err != nil {
			return fmt.Errorf("save unit %s: symbol %q: %w", rec.Path, key, err)
		}
		for _, bucket := range []struct {
			role Role
			occs []index.Occurrence
		}{
			{RoleDeclaration, entry.Declarations},
			{RoleDefinition, entry.Definitions},
			{RoleReference, entry.References},
		} {
			for _, o := range bucket.occs {
				if _, err := occStmt.Exec(unitID, symbolID, string(bucket.role),
					o.Location.File, o.Location.Line, o.Location.Column, o.Cursor, o.StorageClass); err != nil {
					return fmt.Errorf("save unit %s: occurrence of %q: %w", rec.Path, key, err)
				}
			}
		}
	}
	return nil
}

// pruneSymbolsTx drops symbols no unit refers to any more.
func pruneSymbolsTx(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		DELETE FROM symbols WHERE NOT EXISTS (
		  SELECT 1 FROM occurrences o WHERE o.symbol_id = symbols.id
		)`); err != nil {
		return fmt.Errorf("prune symbols: %w", err)
	}
	return nil
}

// DeleteUnit removes a unit and everything it contributed.
func (s *Store) DeleteUnit(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete unit: begin: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM occurrences WHERE unit_id IN (SELECT id FROM units WHERE path = ?)",
		"DELETE FROM unit_deps WHERE unit_id IN (SELECT id FROM units WHERE path = ?)",
		"DELETE FROM units WHERE path = ?",
	} {
		if _, err := tx.Exec(q, path); err != nil {
			return fmt.Errorf("delete unit %s: %w", path, err)
		}
	}
	if err := pruneSymbolsTx(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// UnitByPath returns the unit stored for path, or nil if there is none.
func (s *Store) UnitByPath(path string) (*Unit, error) {
	u := &Unit{}
	var lastIndexed sql.NullTime
	err := s.db.QueryRow(
		"SELECT id, path, fingerprint, last_indexed FROM units WHERE path = ?", path,
	).Scan(&u.ID, &u.Path, &u.Fingerprint, &lastIndexed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unit by path: %w", err)
	}
	u.LastIndexed = lastIndexed.Time
	return u, nil
}

// Units lists every stored unit ordered by path.
func (s *Store) Units() ([]*Unit, error) {
	rows, err := s.db.Query("SELECT id, path, fingerprint, last_indexed FROM units ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}
	defer rows.Close()

	var out []*Unit
	for rows.Next() {
		u := &Unit{}
		var lastIndexed sql.NullTime
		if err := rows.Scan(&u.ID, &u.Path, &u.Fingerprint, &lastIndexed); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.LastIndexed = lastIndexed.Time
		out = append(out, u)
	}
	return out, rows.Err()
}

// UnitDeps returns the files a unit depended on, sorted.
func (s *Store) UnitDeps(unitID int64) ([]string, error) {
	return s.queryStrings("SELECT path FROM unit_deps WHERE unit_id = ? ORDER BY path", unitID)
}

// Dependents returns the paths of units that depended on file.
func (s *Store) Dependents(file string) ([]string, error) {
	return s.queryStrings(`
		SELECT u.path FROM units u
		JOIN unit_deps d ON d.unit_id = u.id
		WHERE d.path = ?
		ORDER BY u.path`, file)
}

// Symbol returns the symbol with the given key.
func (s *Store) Symbol(usr string) (*Symbol, error) {
	sym := &Symbol{}
	err := s.db.QueryRow(
		"SELECT id, usr, display_name FROM symbols WHERE usr = ?", usr,
	).Scan(&sym.ID, &sym.USR, &sym.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("symbol %q: %w", usr, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("symbol: %w", err)
	}
	return sym, nil
}

// SymbolsByName returns symbols whose display name is name, or name
// followed by a parameter list.
func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols(`
		SELECT id, usr, display_name FROM symbols
		WHERE display_name = ? OR substr(display_name, 1, length(?) + 1) = ? || '('
		ORDER BY usr`, name, name, name)
}

// SearchSymbols returns symbols whose key or display name contains
// substr, at most limit of them (0 means no limit).
func (s *Store) SearchSymbols(substr string, limit int) ([]*Symbol, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.querySymbols(`
		SELECT id, usr, display_name FROM symbols
		WHERE instr(usr, ?) > 0 OR instr(display_name, ?) > 0
		ORDER BY usr
		LIMIT ?`, substr, substr, limit)
}

// AllKeys returns every symbol key, sorted.
func (s *Store) AllKeys() ([]string, error) {
	return s.queryStrings("SELECT usr FROM symbols ORDER BY usr")
}

// Occurrences returns the occurrences of a symbol in the given roles (all
// roles when none are given), ordered by unit then location.
func (s *Store) Occurrences(usr string, roles ...Role) ([]*Occurrence, error) {
	query := `
		SELECT o.id, o.unit_id, u.path, o.symbol_id, o.role, o.filename, o.line, o.col, o.cursor, o.storage_class
		FROM occurrences o
		JOIN symbols s ON s.id = o.symbol_id
		JOIN units u ON u.id = o.unit_id
		WHERE s.usr = ?`
	args := []any{usr}
	if len(roles) > 0 {
		query += " AND o.role IN (" + placeholderList(len(roles)) + ")"
		args = append(args, rolesToArgs(roles)...)
	}
	query += " ORDER BY u.path, o.filename, o.line, o.col, o.role"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("occurrences: %w", err)
	}
	defer rows.Close()

	var out []*Occurrence
	for rows.Next() {
		o := &Occurrence{}
		var role string
		if err := rows.Scan(&o.ID, &o.UnitID, &o.UnitPath, &o.SymbolID, &role,
			&o.Filename, &o.Line, &o.Column, &o.Cursor, &o.StorageClass); err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		o.Role = Role(role)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []*Symbol
	for rows.Next() {
		sym := &Symbol{}
		if err := rows.Scan(&sym.ID, &sym.USR, &sym.DisplayName); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *Store) queryStrings(query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
