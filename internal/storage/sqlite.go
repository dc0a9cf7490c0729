package storage

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

// DB wraps the SQLite analysis database a finished network is exported to.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS nodes (
			idx INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			label TEXT NOT NULL,
			pmid TEXT,
			wosid TEXT,
			title TEXT,
			pubdate INTEGER,
			citcount INTEGER,
			level INTEGER,
			x REAL,
			y REAL
		);
		CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);
		CREATE INDEX IF NOT EXISTS idx_nodes_pmid ON nodes(pmid) WHERE pmid IS NOT NULL;

		-- List and analysis attributes; value is JSON for lists
		CREATE TABLE IF NOT EXISTS node_attrs (
			node INTEGER NOT NULL REFERENCES nodes(idx),
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (node, name)
		);

		CREATE TABLE IF NOT EXISTS edges (
			id INTEGER PRIMARY KEY,
			source INTEGER NOT NULL REFERENCES nodes(idx),
			target INTEGER NOT NULL REFERENCES nodes(idx),
			count INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
		CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);

		CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
			idx UNINDEXED,
			kind UNINDEXED,
			label,
			title
		);
	`

	_, err := db.Exec(schema)
	return err
}

// WriteGraph replaces the database contents with g. It returns the number
// of nodes written.
func (d *DB) WriteGraph(g *graph.Graph) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback()

	for _, table := range []string{"node_attrs", "edges", "nodes", "nodes_fts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, errors.Wrapf(err, "clearing %s", table)
		}
	}

	nodeStmt, err := tx.Prepare(`
		INSERT INTO nodes (idx, kind, label, pmid, wosid, title, pubdate, citcount, level, x, y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, errors.Wrap(err, "preparing nodes insert")
	}
	defer nodeStmt.Close()

	attrStmt, err := tx.Prepare(`INSERT INTO node_attrs (node, name, type, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "preparing attrs insert")
	}
	defer attrStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO nodes_fts (idx, kind, label, title) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "preparing fts insert")
	}
	defer ftsStmt.Close()

	for _, n := range g.Nodes() {
		var x, y sql.NullFloat64
		if n.Position != nil {
			x = sql.NullFloat64{Float64: n.Position.X, Valid: true}
			y = sql.NullFloat64{Float64: n.Position.Y, Valid: true}
		}
		_, err := nodeStmt.Exec(
			n.Index, string(n.Kind), n.Label,
			nullableStringValue(n.PMID), nullableStringValue(n.WoSID), nullableStringValue(n.Title),
			nullableInt(n.Pubdate), nullableInt(n.Citcount), nullableInt(n.Level),
			x, y,
		)
		if err != nil {
			return 0, errors.Wrapf(err, "inserting node %d", n.Index)
		}

		for _, a := range n.Attributes() {
			switch a.Name {
			case graph.AttrType, graph.AttrLabel, graph.AttrPMID, graph.AttrWoSID, graph.AttrTitle,
				graph.AttrPubdate, graph.AttrCitcount, graph.AttrLevel:
				continue
			}
			value, err := encodeAttrValue(a.Value)
			if err != nil {
				return 0, errors.Wrapf(err, "node %d attribute %q", n.Index, a.Name)
			}
			if _, err := attrStmt.Exec(n.Index, a.Name, string(a.Value.Type()), value); err != nil {
				return 0, errors.Wrapf(err, "inserting attribute %q of node %d", a.Name, n.Index)
			}
		}

		if _, err := ftsStmt.Exec(n.Index, string(n.Kind), n.Label, n.Title); err != nil {
			return 0, errors.Wrapf(err, "inserting fts for node %d", n.Index)
		}
	}

	edgeStmt, err := tx.Prepare(`INSERT INTO edges (id, source, target, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "preparing edges insert")
	}
	defer edgeStmt.Close()

	for _, e := range g.Edges() {
		var count sql.NullInt64
		if e.Count > 0 {
			count = sql.NullInt64{Int64: int64(e.Count), Valid: true}
		}
		if _, err := edgeStmt.Exec(e.Index, e.Source, e.Target, count); err != nil {
			return 0, errors.Wrapf(err, "inserting edge %d→%d", e.Source, e.Target)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing graph")
	}
	return g.NodeCount(), nil
}

func encodeAttrValue(v graph.Value) (string, error) {
	if _, err := graph.ValueOf(v); err != nil {
		return "", err
	}
	switch x := v.(type) {
	case graph.StringList, graph.IntegerList:
		data, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return graph.FormatValue(v), nil
	}
}

// CountByKind returns the number of nodes per kind.
func (d *DB) CountByKind() (map[graph.Kind]int, error) {
	rows, err := d.db.Query(`SELECT kind, COUNT(*) FROM nodes GROUP BY kind`)
	if err != nil {
		return nil, errors.Wrap(err, "counting nodes")
	}
	defer rows.Close()

	counts := make(map[graph.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[graph.Kind(kind)] = n
	}
	return counts, rows.Err()
}

// NodeRow is a node as stored in the database.
type NodeRow struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	PMID    string `json:"pmid,omitempty"`
	Pubdate *int   `json:"pubdate,omitempty"`
	Degree  int    `json:"degree,omitempty"`
}

// TopByInDegree returns nodes of kind ordered by the number of incoming
// edges, highest first. Ties are broken by index.
func (d *DB) TopByInDegree(kind graph.Kind, limit int) ([]NodeRow, error) {
	query := `
		SELECT n.idx, n.kind, n.label, n.pmid, n.pubdate, COUNT(e.id) AS degree
		FROM nodes n LEFT JOIN edges e ON e.target = n.idx
		WHERE n.kind = ?
		GROUP BY n.idx
		ORDER BY degree DESC, n.idx`
	args := []interface{}{string(kind)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "ranking nodes")
	}
	defer rows.Close()

	var out []NodeRow
	for rows.Next() {
		r, err := scanNodeRow(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Search performs a full-text search over node labels and titles.
func (d *DB) Search(query string, limit int) ([]NodeRow, error) {
	rows, err := d.db.Query(`
		SELECT n.idx, n.kind, n.label, n.pmid, n.pubdate
		FROM nodes n
		WHERE n.idx IN (SELECT idx FROM nodes_fts WHERE nodes_fts MATCH ?)
		ORDER BY n.idx
		LIMIT ?`, prepareFTSQuery(query), limit)
	if err != nil {
		return nil, errors.Wrap(err, "searching")
	}
	defer rows.Close()

	var out []NodeRow
	for rows.Next() {
		r, err := scanNodeRow(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNodeRow(s scanner, withDegree bool) (NodeRow, error) {
	var r NodeRow
	var pmid sql.NullString
	var pubdate sql.NullInt64
	dest := []interface{}{&r.Index, &r.Kind, &r.Label, &pmid, &pubdate}
	if withDegree {
		dest = append(dest, &r.Degree)
	}
	if err := s.Scan(dest...); err != nil {
		return r, err
	}
	r.PMID = pmid.String
	if pubdate.Valid {
		v := int(pubdate.Int64)
		r.Pubdate = &v
	}
	return r, nil
}

// prepareFTSQuery quotes each term so FTS5 operators in user input are
// matched literally.
func prepareFTSQuery(query string) string {
	var terms []string
	for _, part := range strings.Fields(query) {
		terms = append(terms, `"`+strings.ReplaceAll(part, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}

func nullableStringValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
