// Package db keeps a DuckDB archive of every ingested layer object so loaded
// data can be inspected with ad-hoc SQL.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog"

	"github.com/joeblew999/geo-widget/internal/geometry"
	"github.com/joeblew999/geo-widget/internal/service"
)

// Table holds one row per archived layer object.
const Table = "geo_objects"

const schema = `CREATE TABLE IF NOT EXISTS geo_objects (
	layer      VARCHAR NOT NULL,
	idx        INTEGER NOT NULL,
	name       VARCHAR,
	geom_type  VARCHAR NOT NULL,
	type_id    INTEGER,
	type_name  VARCHAR,
	wkt        VARCHAR NOT NULL,
	attributes VARCHAR,
	loaded_at  TIMESTAMP NOT NULL
)`

// Config holds database configuration.
type Config struct {
	// DataDir holds the duckdb/ subdirectory. Empty opens an in-memory database.
	DataDir string
	DBName  string
	// Extensions are installed and loaded on open; failures are logged.
	Extensions []string
}

// TypeNamer resolves object type ids.
type TypeNamer interface {
	NameOf(id int) (string, bool)
}

// DB wraps a DuckDB connection.
type DB struct {
	sql *sql.DB
	log zerolog.Logger
}

// Open opens the database and creates the archive table.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*DB, error) {
	dsn := ""
	if cfg.DataDir != "" {
		dir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		name := cfg.DBName
		if name == "" {
			name = "geowidget"
		}
		dsn = filepath.Join(dir, name+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	d := &DB{sql: conn, log: log.With().Str("component", "db").Logger()}

	for _, ext := range cfg.Extensions {
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			d.log.Warn().Err(err).Str("extension", ext).Msg("extension not loaded")
		}
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating %s: %w", Table, err)
	}
	return d, nil
}

// SQL exposes the underlying connection.
func (d *DB) SQL() *sql.DB { return d.sql }

// Close closes the database connection.
func (d *DB) Close() error { return d.sql.Close() }

// Archive replaces the stored rows of layer with its current objects and
// returns the number of rows written.
func (d *DB) Archive(ctx context.Context, layer service.Layer, types TypeNamer) (int, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM geo_objects WHERE layer = ?", layer.Name); err != nil {
		return 0, fmt.Errorf("clearing layer %q: %w", layer.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO geo_objects
		(layer, idx, name, geom_type, type_id, type_name, wkt, attributes, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, obj := range layer.Objects {
		text, err := geometry.WKT(obj.Type, obj.Geometry)
		if err != nil {
			return 0, fmt.Errorf("object %d (%q): %w", i, obj.Name, err)
		}
		attrs, err := attributesJSON(obj)
		if err != nil {
			return 0, err
		}
		var typeName sql.NullString
		if types != nil {
			typeName.String, typeName.Valid = types.NameOf(obj.TypeID)
		}
		if _, err := stmt.ExecContext(ctx, layer.Name, i, obj.Name, string(obj.Type), obj.TypeID, typeName, text, attrs, now); err != nil {
			return 0, fmt.Errorf("inserting object %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	d.log.Debug().Str("layer", layer.Name).Int("rows", len(layer.Objects)).Msg("layer archived")
	return len(layer.Objects), nil
}

func attributesJSON(obj service.GeoObject) (string, error) {
	m := make(map[string]any, len(obj.Attributes))
	for _, a := range obj.Attributes {
		m[a.Name] = a.Value
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding attributes of %q: %w", obj.Name, err)
	}
	return string(b), nil
}

// Tables lists the tables in the main schema.
func (d *DB) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Result is the outcome of an ad-hoc query.
type Result struct {
	Columns []string         `json:"columns" doc:"Column names"`
	Rows    []map[string]any `json:"rows" doc:"Query results"`
	Count   int              `json:"count" doc:"Number of rows returned"`
}

// Query runs q and collects every row.
func (d *DB) Query(ctx context.Context, q string, args ...any) (*Result, error) {
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		res.Rows = append(res.Rows, row)
	}
	res.Count = len(res.Rows)
	return res, rows.Err()
}
