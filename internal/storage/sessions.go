package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Conversation states. The bot walks /start → program → background →
// questions; the stored state decides how the next message is interpreted.
const (
	StateProgram    = "program"
	StateBackground = "background"
	StateQuestions  = "questions"
)

// Session is a chat's conversation state.
type Session struct {
	ChatID      int64
	State       string
	ProgramID   string
	ProgramName string
	Background  map[string]int
	Strategy    string
	UpdatedAt   time.Time
}

// GetSession loads the session of a chat. Returns (nil, nil) when the chat
// has no session.
func (db *DB) GetSession(ctx context.Context, chatID int64) (*Session, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT chat_id, state, program_id, program_name, background, strategy, updated_at
		FROM sessions WHERE chat_id = ?
	`, chatID)

	var s Session
	var backgroundJSON string
	var updatedAt int64
	err := row.Scan(&s.ChatID, &s.State, &s.ProgramID, &s.ProgramName, &backgroundJSON, &s.Strategy, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	if err := json.Unmarshal([]byte(backgroundJSON), &s.Background); err != nil {
		return nil, fmt.Errorf("decode session background: %w", err)
	}
	s.UpdatedAt = time.Unix(updatedAt, 0)

	return &s, nil
}

// SaveSession inserts or replaces a chat's session.
func (db *DB) SaveSession(ctx context.Context, s *Session) error {
	background := s.Background
	if background == nil {
		background = map[string]int{}
	}
	backgroundJSON, err := json.Marshal(background)
	if err != nil {
		return fmt.Errorf("encode session background: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (chat_id, state, program_id, program_name, background, strategy, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ChatID, s.State, s.ProgramID, s.ProgramName, string(backgroundJSON), s.Strategy, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// DeleteSession removes a chat's session. Deleting a missing session is not
// an error.
func (db *DB) DeleteSession(ctx context.Context, chatID int64) error {
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions idle for longer than ttl and
// returns how many were removed.
func (db *DB) DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl).Unix()
	res, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// CountSessions returns the number of stored sessions.
func (db *DB) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}
