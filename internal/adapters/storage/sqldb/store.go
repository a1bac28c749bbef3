// Package sqldb persists users and messages in SQLite or PostgreSQL.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/PabloGalante/messenger/internal/domain"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store implements domain.UserStore and domain.MessageStore.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer keeps append order stable
	db.SetMaxOpenConns(1)

	return newStore(db, dialectSQLite)
}

// OpenPostgres connects with a lib/pq DSN.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	return newStore(db, dialectPostgres)
}

func newStore(db *sql.DB, d dialect) (*Store, error) {
	s := &Store{db: db, dialect: d}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	seq := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == dialectPostgres {
		seq = "BIGSERIAL PRIMARY KEY"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			seq ` + seq + `,
			id TEXT UNIQUE NOT NULL,
			email TEXT NOT NULL,
			nick_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq ` + seq + `,
			id TEXT UNIQUE NOT NULL,
			sender TEXT NOT NULL,
			receiver TEXT NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			audio TEXT NOT NULL DEFAULT '',
			video TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(q string) string {
	if s.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	q := s.rebind(`INSERT INTO users (id, email, nick_name) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, string(user.ID), user.Email, user.NickName); err != nil {
		return fmt.Errorf("sql CreateUser: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, email, nick_name FROM users ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sql ListUsers: %w", err)
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		var u domain.User
		var id string
		if err := rows.Scan(&id, &u.Email, &u.NickName); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.ID = domain.ID(id)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) AppendMessage(ctx context.Context, msg domain.Message) error {
	q := s.rebind(`INSERT INTO messages (id, sender, receiver, text, time, audio, video, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		string(msg.ID), msg.Sender, msg.Receiver, msg.Text, msg.Time,
		string(msg.Audio), string(msg.Video), msg.Status,
	)
	if err != nil {
		return fmt.Errorf("sql AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender, receiver, text, time, audio, video, status FROM messages ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sql ListMessages: %w", err)
	}
	defer rows.Close()

	out := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		var id, audio, video string
		if err := rows.Scan(&id, &m.Sender, &m.Receiver, &m.Text, &m.Time, &audio, &video, &m.Status); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID = domain.ID(id)
		m.Audio = domain.MediaRef(audio)
		m.Video = domain.MediaRef(video)
		out = append(out, m)
	}
	return out, rows.Err()
}
