package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/careerlink/internal/model"
	"github.com/hitoshi/careerlink/internal/repository"
)

// ListResult は通知一覧の取得結果。
type ListResult struct {
	Notifications []*model.Notification
	Total         int
	UnreadCount   int
}

// Service は通知受信トレイの読み取りと既読操作を提供する。
// 操作は全て本人の通知に限られ、他人の通知への操作はFORBIDDENになる。
type Service struct {
	notificationRepo repository.NotificationRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(notificationRepo repository.NotificationRepository) *Service {
	return &Service{notificationRepo: notificationRepo}
}

// List はユーザーの通知を作成日時の降順で取得する。
// unreadOnly=trueの場合は未読のみを対象にする。
// 総数と未読数はフィルタに関わらず常に併せて返す。
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, offset, limit int) (*ListResult, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID, unreadOnly, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}

	total, err := s.notificationRepo.CountByUser(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("通知数の取得に失敗しました: %w", err)
	}

	unread, err := s.notificationRepo.CountByUser(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("未読数の取得に失敗しました: %w", err)
	}

	return &ListResult{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
	}, nil
}

// MarkRead は指定通知を既読にする。冪等で、既読済みの通知に対しても成功する。
// 通知が存在しない場合はNOTIFICATION_NOT_FOUND、
// 他人の通知だった場合はFORBIDDENを返す。
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	// UUID構文でないIDはバインドエラーになる前にNotFound扱いにする
	if _, err := uuid.Parse(notificationID); err != nil {
		return model.NewNotificationNotFoundError(notificationID)
	}

	n, err := s.notificationRepo.FindByID(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("通知の検索に失敗しました: %w", err)
	}
	if n == nil {
		return model.NewNotificationNotFoundError(notificationID)
	}
	if n.UserID != userID {
		return model.NewForbiddenError("他のユーザーの通知は操作できません")
	}

	if err := s.notificationRepo.MarkRead(ctx, notificationID, time.Now().UTC()); err != nil {
		return fmt.Errorf("通知の既読化に失敗しました: %w", err)
	}
	return nil
}

// MarkAllRead はユーザーの全未読通知を既読にする。
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("通知の一括既読化に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定通知を削除する。所有者チェックはMarkReadと同じ。
func (s *Service) Delete(ctx context.Context, userID, notificationID string) error {
	if _, err := uuid.Parse(notificationID); err != nil {
		return model.NewNotificationNotFoundError(notificationID)
	}

	n, err := s.notificationRepo.FindByID(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("通知の検索に失敗しました: %w", err)
	}
	if n == nil {
		return model.NewNotificationNotFoundError(notificationID)
	}
	if n.UserID != userID {
		return model.NewForbiddenError("他のユーザーの通知は操作できません")
	}

	if err := s.notificationRepo.Delete(ctx, notificationID); err != nil {
		return fmt.Errorf("通知の削除に失敗しました: %w", err)
	}
	return nil
}
