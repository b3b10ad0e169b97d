package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/steady/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var data string
	var read int

	err := scanner.Scan(&n.ID, &n.From, &n.To, &n.Type, &data, &read, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	n.Read = read != 0
	n.AdditionalData = map[string]any{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &n.AdditionalData); err != nil {
			return nil, fmt.Errorf("decode additional data: %w", err)
		}
	}
	return &n, nil
}

const notificationCols = `id, from_id, to_id, type, additional_data, read, created_at`

func (s *NotificationStore) Create(ctx context.Context, from, to int64, typ model.NotificationType, data map[string]any) (*model.Notification, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode additional data: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (from_id, to_id, type, additional_data) VALUES (?, ?, ?, ?)`,
		from, to, string(typ), string(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *NotificationStore) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// ListByRecipient returns notifications addressed to an account, newest first.
func (s *NotificationStore) ListByRecipient(ctx context.Context, to int64) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationCols+` FROM notifications WHERE to_id = ? ORDER BY created_at DESC, id DESC`, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	list := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, *n)
	}
	return list, rows.Err()
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, to int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE to_id = ? AND read = 0`, to)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationStore) DeleteAll(ctx context.Context, to int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE to_id = ?`, to)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
