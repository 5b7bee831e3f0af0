package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pcastro/parley/internal/store/migrations"
)

// SQLite is a Store backed by a local SQLite file. It is the default
// backend: everything works offline and the file lives next to the
// profile state.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path with WAL mode
// and foreign keys on, and applies pending migrations.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

func (s *SQLite) GetUser(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, phone_number FROM users WHERE id = ?`, id))
}

func (s *SQLite) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, phone_number FROM users WHERE email = ? LIMIT 1`, email))
}

func (s *SQLite) FindUserByPhone(ctx context.Context, phone string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, phone_number FROM users WHERE phone_number = ? LIMIT 1`, phone))
}

func (s *SQLite) FindUserByEmailAndPhone(ctx context.Context, email, phone string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, phone_number FROM users WHERE email = ? AND phone_number = ? LIMIT 1`, email, phone))
}

func (s *SQLite) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PhoneNumber)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLite) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, phone_number, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PhoneNumber, time.Now().UnixMilli())
	return err
}

func (s *SQLite) CreateChat(ctx context.Context, userID, heading string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, heading, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, heading, now, now)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLite) ListChats(ctx context.Context, userID string) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, heading, created_at, updated_at
		FROM chats
		WHERE user_id = ?
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.Heading, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (s *SQLite) TouchChat(ctx context.Context, userID, chatID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET updated_at = ? WHERE id = ? AND user_id = ?`,
		time.Now().UnixMilli(), chatID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) DeleteChat(ctx context.Context, userID, chatID string) error {
	// Messages go with the thread via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chats WHERE id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) AddMessage(ctx context.Context, userID, chatID string, m *Message) (string, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender, text, created_at)
		SELECT ?, id, ?, ?, ? FROM chats WHERE id = ? AND user_id = ?`,
		id, string(m.Sender), m.Text, m.CreatedAt, chatID, userID)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *SQLite) ListMessages(ctx context.Context, userID, chatID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.sender, m.text, m.created_at
		FROM messages m
		JOIN chats c ON c.id = m.chat_id
		WHERE m.chat_id = ? AND c.user_id = ?
		ORDER BY m.created_at ASC`, chatID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		var sender string
		if err := rows.Scan(&m.ID, &sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Sender = Sender(sender)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
