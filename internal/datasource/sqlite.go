package datasource

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schema is the table an outline database holds. A NULL parent_id marks a
// root; position orders siblings.
const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	id        INTEGER PRIMARY KEY,
	parent_id INTEGER REFERENCES nodes(id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	label     TEXT NOT NULL,
	note      TEXT,
	expanded  INTEGER NOT NULL DEFAULT 0,
	checked   INTEGER NOT NULL DEFAULT 0,
	icon      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);
`

// SQLiteReader provides read access to an outline database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Read pragmas are best effort.
	for _, pragma := range []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	} {
		_, _ = db.Exec(pragma)
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type nodeRow struct {
	id     int64
	parent sql.NullInt64
	node   Node
}

// LoadOutline reads every node and rebuilds the hierarchy.
func (r *SQLiteReader) LoadOutline() (Outline, error) {
	var o Outline
	var title sql.NullString
	err := r.db.QueryRow(`SELECT value FROM meta WHERE key = 'title'`).Scan(&title)
	if err != nil && err != sql.ErrNoRows {
		// Databases without a meta table are still valid outlines.
		title = sql.NullString{}
	}
	o.Title = title.String

	rows, err := r.db.Query(`
		SELECT id, parent_id, label, note, expanded, checked, icon
		FROM nodes
		ORDER BY parent_id, position, id
	`)
	if err != nil {
		return Outline{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var all []nodeRow
	for rows.Next() {
		var row nodeRow
		var note sql.NullString
		if err := rows.Scan(&row.id, &row.parent, &row.node.Label, &note,
			&row.node.Expanded, &row.node.Checked, &row.node.Icon); err != nil {
			return Outline{}, fmt.Errorf("scanning node: %w", err)
		}
		row.node.Note = note.String
		all = append(all, row)
	}
	if err := rows.Err(); err != nil {
		return Outline{}, fmt.Errorf("error iterating nodes: %w", err)
	}

	o.Nodes, err = assemble(all)
	return o, err
}

// assemble links rows into trees. Rows arrive ordered by position within
// each parent.
func assemble(all []nodeRow) ([]Node, error) {
	children := make(map[int64][]int)
	var roots []int
	known := make(map[int64]bool, len(all))
	for _, row := range all {
		known[row.id] = true
	}
	for i, row := range all {
		switch {
		case !row.parent.Valid:
			roots = append(roots, i)
		case known[row.parent.Int64]:
			children[row.parent.Int64] = append(children[row.parent.Int64], i)
		default:
			return nil, fmt.Errorf("node %d: parent %d: %w", row.id, row.parent.Int64, ErrNotFound)
		}
	}

	// Build bottom-up with an explicit stack so deep outlines cannot
	// exhaust the goroutine stack.
	built := make(map[int]Node, len(all))
	type frame struct {
		i    int
		done bool
	}
	var out []Node
	for _, root := range roots {
		stack := []frame{{i: root}}
		for len(stack) > 0 {
			top := len(stack) - 1
			i := stack[top].i
			row := all[i]
			if !stack[top].done {
				stack[top].done = true
				kids := children[row.id]
				for j := len(kids) - 1; j >= 0; j-- {
					stack = append(stack, frame{i: kids[j]})
				}
				continue
			}
			stack = stack[:top]
			n := row.node
			for _, k := range children[row.id] {
				n.Children = append(n.Children, built[k])
				delete(built, k)
			}
			built[i] = n
		}
		out = append(out, built[root])
		delete(built, root)
	}
	// Rows on a parent cycle are never reached from a root.
	if Count(out) != len(all) {
		return nil, fmt.Errorf("%d nodes unreachable from any root: parent cycle", len(all)-Count(out))
	}
	return out, nil
}

// WriteSQLite replaces the outline stored at path, creating the database
// when needed.
func WriteSQLite(path string, o Outline) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM nodes`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('title', ?)`, o.Title); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO nodes(parent_id, position, label, note, expanded, checked, icon)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var insert func(parent sql.NullInt64, nodes []Node) error
	insert = func(parent sql.NullInt64, nodes []Node) error {
		for pos, n := range nodes {
			res, err := stmt.Exec(parent, pos, n.Label, sql.NullString{String: n.Note, Valid: n.Note != ""},
				n.Expanded, n.Checked, n.Icon)
			if err != nil {
				return fmt.Errorf("inserting %q: %w", n.Label, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			if err := insert(sql.NullInt64{Int64: id, Valid: true}, n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(sql.NullInt64{}, o.Nodes); err != nil {
		return err
	}
	return tx.Commit()
}
