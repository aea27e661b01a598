package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/careerlink/internal/model"
)

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

const notificationColumns = `id, user_id, type, title, message, data, is_read, created_at, read_at`

// Create は通知を作成する。
func (r *PostgresNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	data := n.Data
	if data == "" {
		data = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, data, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("通知の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの通知を取得する。見つからない場合はnilを返す。
func (r *PostgresNotificationRepo) FindByID(ctx context.Context, id string) (*model.Notification, error) {
	n := &model.Notification{}
	var readAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`,
		id,
	).Scan(
		&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Data,
		&n.IsRead, &n.CreatedAt, &readAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("通知の取得に失敗しました: %w", err)
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	return n, nil
}

// ListByUser はユーザーの通知を作成日時の降順で取得する。
func (r *PostgresNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC OFFSET $2 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		n := &model.Notification{}
		var readAt sql.NullTime
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Data,
			&n.IsRead, &n.CreatedAt, &readAt,
		); err != nil {
			return nil, fmt.Errorf("通知行のスキャンに失敗しました: %w", err)
		}
		if readAt.Valid {
			n.ReadAt = &readAt.Time
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("通知一覧の読み取りに失敗しました: %w", err)
	}

	return notifications, nil
}

// CountByUser はユーザーの通知数を返す。unreadOnly=trueの場合は未読数を返す。
func (r *PostgresNotificationRepo) CountByUser(ctx context.Context, userID string, unreadOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("通知数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// MarkRead は通知を既読にしてread_atを設定する。
// 既読済みの通知に対しては何もしない（read_atを上書きしない）。
func (r *PostgresNotificationRepo) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = $2
		 WHERE id = $1 AND is_read = FALSE`,
		id, readAt,
	)
	if err != nil {
		return fmt.Errorf("通知の既読化に失敗しました: %w", err)
	}
	return nil
}

// MarkAllRead はユーザーの全未読通知を既読にする。
func (r *PostgresNotificationRepo) MarkAllRead(ctx context.Context, userID string, readAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = $2
		 WHERE user_id = $1 AND is_read = FALSE`,
		userID, readAt,
	)
	if err != nil {
		return fmt.Errorf("通知の一括既読化に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの通知を削除する。
func (r *PostgresNotificationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("通知の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
