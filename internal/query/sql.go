package query

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/polarsignals/filecat/internal/catalog"
)

// QueryResult is the result of an ad-hoc SQL query: column names plus rows
// of column values (as driver-native Go types).
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// Query executes an arbitrary read-only SQL statement against the
// reconstructed view, exposed under the logical table name "files" with the
// columns of §3 plus the derived on_disk bool (§4.7). The teacher's own
// query builder (query/logicalplan + query/physicalplan) only supports a
// closed Filter/Project/Aggregate expression DSL, not free-form SQL text, so
// this operation is enriched from the rest of the retrieval pack: the view
// is materialised into an in-memory SQLite database (modernc.org/sqlite,
// pure Go, no cgo) and the caller's SQL runs against that directly.
func (c *Catalog) Query(query string) (*QueryResult, error) {
	st, err := c.view("")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory sql engine: %w", err)
	}
	defer db.Close()

	if err := createFilesTable(db); err != nil {
		return nil, err
	}
	if err := populateFilesTable(db, st); err != nil {
		return nil, err
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func createFilesTable(db *sql.DB) error {
	const ddl = `
CREATE TABLE files (
	path TEXT,
	parent_path TEXT,
	filename TEXT,
	size INTEGER,
	mtime INTEGER,
	owner TEXT,
	group_name TEXT,
	permissions INTEGER,
	checksum TEXT,
	experiment TEXT,
	run INTEGER,
	indexed_at TEXT,
	on_disk INTEGER,
	status TEXT
)`
	_, err := db.Exec(ddl)
	if err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	return nil
}

func populateFilesTable(db *sql.DB, st catalog.State) error {
	const insert = `INSERT INTO files (
		path, parent_path, filename, size, mtime, owner, group_name,
		permissions, checksum, experiment, run, indexed_at, on_disk, status
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := db.Prepare(insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range st {
		_, err := stmt.Exec(
			r.Path, r.ParentPath, r.Filename, r.Size, r.Mtime, r.Owner, r.GroupName,
			r.Permissions, r.Checksum, r.Experiment, r.Run, r.IndexedAt, r.IsOnDisk(), r.Status,
		)
		if err != nil {
			return fmt.Errorf("insert row %s: %w", r.Path, err)
		}
	}
	return nil
}

// scanRows drains rows into a QueryResult using driver-native column types,
// so callers get back whatever SQLite yields (int64, float64, string, []byte
// or nil) without the caller needing to know the query's projection shape.
func scanRows(rows *sql.Rows) (*QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
