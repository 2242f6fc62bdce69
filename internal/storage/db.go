package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"valvefinder/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS valves (
  id TEXT PRIMARY KEY,
  ref TEXT,
  valvula TEXT,
  nombre TEXT,
  cantidad INTEGER,
  ubicacion TEXT,
  numero_serie TEXT,
  ficha_tecnica TEXT,
  simbolo TEXT,
  banco TEXT,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_valves_valvula ON valves(valvula);
CREATE INDEX IF NOT EXISTS idx_valves_numero_serie ON valves(numero_serie);

CREATE TABLE IF NOT EXISTS scans (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  code_text TEXT NOT NULL,
  code_type TEXT NOT NULL,
  matched_id TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

const valveColumns = `id, ref, valvula, nombre, cantidad, ubicacion, numero_serie, ficha_tecnica, simbolo, banco`

// UpsertValves writes backend valves into the local cache, keyed by id.
func (d *DB) UpsertValves(valves []internal.BackendValve) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertValvesTx(tx, valves); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceValves makes the cache hold exactly valves: rows the backend no
// longer lists are removed in the same transaction.
func (d *DB) ReplaceValves(valves []internal.BackendValve) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM valves`); err != nil {
		return err
	}
	if err := upsertValvesTx(tx, valves); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertValvesTx(tx *sql.Tx, valves []internal.BackendValve) error {
	stmt, err := tx.Prepare(`
INSERT INTO valves (` + valveColumns + `, lastSeenAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  ref=excluded.ref,
  valvula=excluded.valvula,
  nombre=excluded.nombre,
  cantidad=excluded.cantidad,
  ubicacion=excluded.ubicacion,
  numero_serie=excluded.numero_serie,
  ficha_tecnica=excluded.ficha_tecnica,
  simbolo=excluded.simbolo,
  banco=excluded.banco,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range valves {
		if strings.TrimSpace(v.ID) == "" {
			continue
		}
		var location *string
		if len(v.Location) > 0 {
			blob, _ := json.Marshal([]string(v.Location))
			s := string(blob)
			location = &s
		}
		if _, err := stmt.Exec(
			v.ID, v.Ref, v.Valve, v.Name, v.Quantity, location,
			v.SerialNumber, v.DatasheetURL, v.SymbolURL, v.Bank,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListValves returns the cached backend catalog in insertion order.
func (d *DB) ListValves() ([]internal.BackendValve, error) {
	rows, err := d.conn.Query(`SELECT ` + valveColumns + ` FROM valves ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanValves(rows)
}

func (d *DB) GetValve(id string) (*internal.BackendValve, error) {
	rows, err := d.conn.Query(`SELECT `+valveColumns+` FROM valves WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := scanValves(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// SearchValves matches q case-insensitively against valvula, ubicacion and
// numero_serie.
func (d *DB) SearchValves(q string, limit int) ([]internal.BackendValve, error) {
	if limit <= 0 {
		limit = 100
	}
	like := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	rows, err := d.conn.Query(`
SELECT `+valveColumns+`
FROM valves
WHERE lower(coalesce(valvula, '')) LIKE ?
   OR lower(coalesce(ubicacion, '')) LIKE ?
   OR lower(coalesce(numero_serie, '')) LIKE ?
ORDER BY rowid
LIMIT ?
`, like, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanValves(rows)
}

func (d *DB) CountValves() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM valves`).Scan(&n)
	return n, err
}

func scanValves(rows *sql.Rows) ([]internal.BackendValve, error) {
	var out []internal.BackendValve
	for rows.Next() {
		var v internal.BackendValve
		var qty sql.NullInt64
		var location sql.NullString
		if err := rows.Scan(
			&v.ID, &v.Ref, &v.Valve, &v.Name, &qty, &location,
			&v.SerialNumber, &v.DatasheetURL, &v.SymbolURL, &v.Bank,
		); err != nil {
			return nil, err
		}
		if qty.Valid {
			n := int(qty.Int64)
			v.Quantity = &n
		}
		if location.Valid {
			_ = json.Unmarshal([]byte(location.String), &v.Location)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// InsertScan logs one looked-up code; matchedID is nil on a miss.
func (d *DB) InsertScan(codeText, codeType string, matchedID *string) (int64, error) {
	result, err := d.conn.Exec(`INSERT INTO scans (code_text, code_type, matched_id) VALUES (?, ?, ?)`, codeText, codeType, matchedID)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListScans returns the most recent scans first.
func (d *DB) ListScans(limit int) ([]internal.ScanRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.conn.Query(`SELECT id, code_text, code_type, matched_id, createdAt FROM scans ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ScanRow
	for rows.Next() {
		var row internal.ScanRow
		if err := rows.Scan(&row.ID, &row.CodeText, &row.CodeType, &row.MatchedID, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
