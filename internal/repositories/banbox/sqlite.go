package banbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/KirkDiggler/headsteal/internal/entities"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS banbox_records (
	player_id TEXT PRIMARY KEY,
	record    TEXT NOT NULL
)`

// SQLiteRepository stores records in a single table, rewritten per save
type SQLiteRepository struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (and creates if needed) a SQLite store at path
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(createTableSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create banbox table: %w", err)
	}

	return &SQLiteRepository{sqlDB: sqlDB}, nil
}

// Close closes the underlying database
func (s *SQLiteRepository) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadAll reads every record
func (s *SQLiteRepository) LoadAll(ctx context.Context) ([]*entities.BanBoxRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT player_id, record FROM banbox_records ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("query banbox records: %w", err)
	}
	defer rows.Close()

	var records []*entities.BanBoxRecord
	for rows.Next() {
		var playerID, data string
		if err := rows.Scan(&playerID, &data); err != nil {
			return nil, fmt.Errorf("scan banbox record: %w", err)
		}
		var rec entities.BanBoxRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode banbox record %s: %w", playerID, err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate banbox records: %w", err)
	}
	return records, nil
}

// SaveAll replaces the table contents in one transaction
func (s *SQLiteRepository) SaveAll(ctx context.Context, records []*entities.BanBoxRecord) (err error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin banbox save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM banbox_records`); err != nil {
		return fmt.Errorf("clear banbox records: %w", err)
	}

	for _, rec := range sortRecords(records) {
		data, marshalErr := json.Marshal(rec)
		if marshalErr != nil {
			err = fmt.Errorf("encode banbox record %s: %w", rec.PlayerID, marshalErr)
			return err
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO banbox_records (player_id, record) VALUES (?, ?)`, rec.PlayerID, string(data)); err != nil {
			return fmt.Errorf("insert banbox record %s: %w", rec.PlayerID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit banbox save: %w", err)
	}
	return nil
}
