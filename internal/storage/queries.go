package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pable/susscan/internal/model"
)

// SaveScan stores one scored result and returns its row id.
func (db *DB) SaveScan(m *model.PlayerMetrics, scannedAt time.Time) (int64, error) {
	blob, err := json.Marshal(m)
	if err != nil {
		return 0, fmt.Errorf("encode metrics: %w", err)
	}
	res, err := db.conn.Exec(`
		INSERT INTO scans(username, score, scanned_at, metrics)
		VALUES (?, ?, ?, ?)`,
		strings.ToLower(m.Username), m.SuspicionScore, scannedAt.Unix(), string(blob),
	)
	if err != nil {
		return 0, fmt.Errorf("insert scan for %s: %w", m.Username, err)
	}
	return res.LastInsertId()
}

// SaveScans stores a batch of results in one transaction.
func (db *DB) SaveScans(ms []*model.PlayerMetrics, scannedAt time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO scans(username, score, scanned_at, metrics) VALUES (?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range ms {
		blob, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode metrics for %s: %w", m.Username, err)
		}
		if _, err := stmt.Exec(strings.ToLower(m.Username), m.SuspicionScore, scannedAt.Unix(), string(blob)); err != nil {
			return fmt.Errorf("insert scan for %s: %w", m.Username, err)
		}
	}
	return tx.Commit()
}

// ListScans returns stored scans newest first. An empty username lists every
// player; limit <= 0 means no limit.
func (db *DB) ListScans(username string, limit int) ([]model.ScanRecord, error) {
	query := `SELECT id, username, score, scanned_at, metrics FROM scans`
	var args []any
	if username != "" {
		query += ` WHERE username = ?`
		args = append(args, strings.ToLower(username))
	}
	query += ` ORDER BY scanned_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetScan returns the scan with the given id, or nil when there is none.
func (db *DB) GetScan(id int64) (*model.ScanRecord, error) {
	row := db.conn.QueryRow(`SELECT id, username, score, scanned_at, metrics FROM scans WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(r rowScanner) (model.ScanRecord, error) {
	var rec model.ScanRecord
	var ts int64
	var blob string
	if err := r.Scan(&rec.ID, &rec.Username, &rec.Score, &ts, &blob); err != nil {
		return rec, err
	}
	rec.ScannedAt = time.Unix(ts, 0).UTC()
	if err := json.Unmarshal([]byte(blob), &rec.Metrics); err != nil {
		return rec, fmt.Errorf("decode scan %d: %w", rec.ID, err)
	}
	return rec, nil
}

// GetArchive returns the cached body of a monthly archive.
func (db *DB) GetArchive(url string) ([]byte, bool, error) {
	var compressed []byte
	err := db.conn.QueryRow(`SELECT body FROM archive_cache WHERE url = ?`, url).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	body, err := db.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("decompress %s: %w", url, err)
	}
	return body, true, nil
}

// PutArchive stores a monthly archive body, replacing any previous copy.
func (db *DB) PutArchive(url string, body []byte) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO archive_cache(url, body, fetched_at) VALUES (?, ?, ?)`,
		url, db.enc.EncodeAll(body, nil), time.Now().Unix(),
	)
	return err
}

// ClearArchiveCache removes every cached archive and returns how many were dropped.
func (db *DB) ClearArchiveCache() (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM archive_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CacheStats returns the number of cached archives and their compressed size in bytes.
func (db *DB) CacheStats() (entries int, bytes int64, err error) {
	err = db.conn.QueryRow(`SELECT COUNT(1), COALESCE(SUM(LENGTH(body)), 0) FROM archive_cache`).Scan(&entries, &bytes)
	return entries, bytes, err
}

// QueryRaw runs an arbitrary query and returns column names and stringified rows.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case float64:
		return fmt.Sprintf("%.4g", x)
	default:
		return fmt.Sprint(x)
	}
}
