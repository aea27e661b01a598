package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/careerlink/internal/model"
	"github.com/hitoshi/careerlink/internal/notification"
)

// NotificationServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	// List はユーザーの通知を作成日時の降順で取得する。
	List(ctx context.Context, userID string, unreadOnly bool, offset, limit int) (*notification.ListResult, error)
	// MarkRead は指定通知を既読にする。
	MarkRead(ctx context.Context, userID, notificationID string) error
	// MarkAllRead は全未読通知を既読にする。
	MarkAllRead(ctx context.Context, userID string) error
	// Delete は指定通知を削除する。
	Delete(ctx context.Context, userID, notificationID string) error
}

// NotificationHandler は通知受信トレイのHTTPハンドラー。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// notificationResponse は通知1件のAPIレスポンス。
// Dataにはコネクションイベントの断面がJSONのまま入る。
type notificationResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
}

// ListNotifications は通知一覧を取得する。
// GET /api/notifications?unread_only=true
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	offset, limit := parsePagination(r)

	result, err := h.service.List(r.Context(), userID, unreadOnly, offset, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]notificationResponse, len(result.Notifications))
	for i, n := range result.Notifications {
		items[i] = toNotificationResponse(n)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"notifications": items,
		"total":         result.Total,
		"unread_count":  result.UnreadCount,
	})
}

// MarkNotificationRead は通知を既読にする。
// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notificationID := chi.URLParam(r, "id")

	if err := h.service.MarkRead(r.Context(), userID, notificationID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllNotificationsRead は全未読通知を既読にする。
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteNotification は通知を削除する。
// DELETE /api/notifications/:id
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notificationID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, notificationID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toNotificationResponse はmodel.NotificationからAPIレスポンスに変換する。
func toNotificationResponse(n *model.Notification) notificationResponse {
	data := json.RawMessage(n.Data)
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	return notificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Data:      data,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
}
