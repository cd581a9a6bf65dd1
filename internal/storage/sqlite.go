package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"trendcharts/internal/series"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

type Store struct {
	db  DB
	now func() time.Time
}

// OpenSQLite opens dsn with a single connection so ":memory:" databases are shared.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func InitSchema(ctx context.Context, db DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS series_points(
			source TEXT, key TEXT, name TEXT, unit TEXT,
			period INTEGER, value REAL, valid INTEGER, fetched_at INTEGER,
			PRIMARY KEY(source, key, period)
		)`,
		`CREATE TABLE IF NOT EXISTS usage(
			chat_id INTEGER, command TEXT, ts INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS usage_ts ON usage(ts)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func NewStore(db DB) *Store { return &Store{db: db, now: time.Now} }

// SaveSeries replaces every stored point for (source, key) with s.
func (s *Store) SaveSeries(ctx context.Context, source, key string, ser series.Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM series_points WHERE source=? AND key=?`, source, key); err != nil {
		return err
	}
	ts := s.now().Unix()
	for _, p := range ser.Points {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO series_points(source,key,name,unit,period,value,valid,fetched_at) VALUES(?,?,?,?,?,?,?,?)`,
			source, key, ser.Name, ser.Unit, p.Period, p.Value, p.Valid, ts)
		if err != nil {
			return fmt.Errorf("insert %s/%s %d: %w", source, key, p.Period, err)
		}
	}
	return tx.Commit()
}

// LoadSeries returns the stored series for (source, key). Entries older than
// maxAge report a miss; maxAge <= 0 accepts any age.
func (s *Store) LoadSeries(ctx context.Context, source, key string, maxAge time.Duration) (series.Series, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, unit, period, value, valid, fetched_at FROM series_points
		 WHERE source=? AND key=? ORDER BY period ASC`, source, key)
	if err != nil {
		return series.Series{}, false, err
	}
	defer rows.Close()

	var (
		name, unit string
		oldest     int64
		pts        []series.Point
	)
	for rows.Next() {
		var (
			p         series.Point
			fetchedAt int64
		)
		if err := rows.Scan(&name, &unit, &p.Period, &p.Value, &p.Valid, &fetchedAt); err != nil {
			return series.Series{}, false, err
		}
		if oldest == 0 || fetchedAt < oldest {
			oldest = fetchedAt
		}
		pts = append(pts, p)
	}
	if err := rows.Err(); err != nil {
		return series.Series{}, false, err
	}
	if len(pts) == 0 {
		return series.Series{}, false, nil
	}
	if maxAge > 0 && s.now().Sub(time.Unix(oldest, 0)) > maxAge {
		return series.Series{}, false, nil
	}
	out, err := series.New(name, pts...)
	if err != nil {
		return series.Series{}, false, fmt.Errorf("stored %s/%s is corrupt: %w", source, key, err)
	}
	return out.WithUnit(unit), true, nil
}

func (s *Store) LogUsage(ctx context.Context, chatID int64, command string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO usage(chat_id,command,ts) VALUES(?,?,?)`,
		chatID, command, ts.Unix())
	return err
}

// UsageCounts tallies commands logged at or after since.
func (s *Store) UsageCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT command, COUNT(*) FROM usage WHERE ts>=? GROUP BY command`, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			cmd string
			n   int
		)
		if err := rows.Scan(&cmd, &n); err != nil {
			return nil, err
		}
		out[cmd] = n
	}
	return out, rows.Err()
}
