package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/qepting91/reddit-grid/internal/domain"
)

var _ domain.GroupStore = (*SQLStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stars (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	group_name TEXT NOT NULL,
	post_id TEXT NOT NULL,
	post_data TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_stars_group ON stars(group_name, seq);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS stars (
	seq BIGSERIAL PRIMARY KEY,
	group_name TEXT NOT NULL,
	post_id TEXT NOT NULL,
	post_data TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_stars_group ON stars(group_name, seq);
`

type dialect struct {
	insert     string
	selectPost string
}

var (
	sqliteDialect = dialect{
		insert:     `INSERT INTO stars (group_name, post_id, post_data) VALUES (?, ?, ?)`,
		selectPost: `SELECT post_data FROM stars WHERE group_name = ? ORDER BY seq`,
	}
	postgresDialect = dialect{
		insert:     `INSERT INTO stars (group_name, post_id, post_data) VALUES ($1, $2, $3)`,
		selectPost: `SELECT post_data FROM stars WHERE group_name = $1 ORDER BY seq`,
	}
)

// SQLStore keeps groups in a single stars table, one row per starred post.
// Row order is the auto-incrementing seq column.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLiteStore opens (creating if needed) the database file at path.
func NewSQLiteStore(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection makes sqlite the single writer for every group.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &SQLStore{db: db, dialect: sqliteDialect}, nil
}

// NewPostgresStore connects to PostgreSQL at databaseURL, verifies the
// connection and creates the schema.
func NewPostgresStore(databaseURL string) (*SQLStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &SQLStore{db: db, dialect: postgresDialect}, nil
}

// AppendPost inserts post at the end of group in its own transaction.
func (s *SQLStore) AppendPost(ctx context.Context, group string, post domain.Post) error {
	data, err := encodePost(post)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.dialect.insert, group, post.ID, data); err != nil {
		return fmt.Errorf("insert star %s into %s: %w", post.ID, group, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit star %s into %s: %w", post.ID, group, err)
	}
	return nil
}

func (s *SQLStore) GroupPosts(ctx context.Context, group string) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.selectPost, group)
	if err != nil {
		return nil, fmt.Errorf("query group %s: %w", group, err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan star: %w", err)
		}
		p, err := decodePost(data)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group %s: %w", group, err)
	}
	return posts, nil
}

// ListGroups returns every group name in lexical order.
func (s *SQLStore) ListGroups(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT group_name FROM stars ORDER BY group_name`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, name)
	}
	return groups, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
