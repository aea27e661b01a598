// Package notification はコネクション状態遷移に伴う通知の発行と、
// 通知受信トレイの読み取り・操作を提供する。
//
// 通知はベストエフォートで扱う: 発行失敗はログとメトリクスに
// 記録するだけで、発生元のグラフ状態遷移を巻き戻すことはない。
// グラフのエッジが真実の源であり、通知はそのエコーにすぎない。
package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/careerlink/internal/model"
	"github.com/hitoshi/careerlink/internal/repository"
)

// dispatchMetrics は通知発行のメトリクス記録インターフェース。
type dispatchMetrics interface {
	RecordNotificationEmitted(notificationType string)
	RecordNotificationFailure()
}

// Dispatcher はコネクションイベントに対応する通知を組み立てて永続化する。
type Dispatcher struct {
	notificationRepo repository.NotificationRepository
	metrics          dispatchMetrics
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
func NewDispatcher(notificationRepo repository.NotificationRepository, metrics dispatchMetrics) *Dispatcher {
	return &Dispatcher{
		notificationRepo: notificationRepo,
		metrics:          metrics,
	}
}

// actorPayload は通知のdataフィールドに埋め込む行為者の断面。
type actorPayload struct {
	ConnectionID string `json:"connection_id"`
	UserID       string `json:"user_id"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	Headline     string `json:"headline,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// ConnectionRequested はコネクション申請の受信通知をrecipientへ発行する。
func (d *Dispatcher) ConnectionRequested(ctx context.Context, conn *model.Connection, requester model.ProfileSnapshot) {
	d.emit(ctx, conn, requester, conn.RecipientID,
		model.NotificationConnectionRequest,
		"新しいコネクションリクエスト",
		requester.FullName+"さんからコネクションリクエストが届きました",
	)
}

// ConnectionAccepted は申請承認の通知をrequesterへ発行する。
func (d *Dispatcher) ConnectionAccepted(ctx context.Context, conn *model.Connection, recipient model.ProfileSnapshot) {
	d.emit(ctx, conn, recipient, conn.RequesterID,
		model.NotificationConnectionAccepted,
		"コネクションリクエストが承認されました",
		recipient.FullName+"さんがリクエストを承認しました",
	)
}

// ConnectionDeclined は申請辞退の通知をrequesterへ発行する。
func (d *Dispatcher) ConnectionDeclined(ctx context.Context, conn *model.Connection, recipient model.ProfileSnapshot) {
	d.emit(ctx, conn, recipient, conn.RequesterID,
		model.NotificationConnectionDeclined,
		"コネクションリクエストへの回答",
		recipient.FullName+"さんがリクエストを辞退しました",
	)
}

// emit は通知レコードを組み立てて保存する。失敗してもエラーは返さない。
func (d *Dispatcher) emit(
	ctx context.Context,
	conn *model.Connection,
	actor model.ProfileSnapshot,
	targetUserID string,
	notificationType model.NotificationType,
	title, message string,
) {
	payload := actorPayload{
		ConnectionID: conn.ID,
		UserID:       actor.ID,
		FullName:     actor.FullName,
		Role:         string(actor.Role),
		Headline:     actor.Headline,
		CompanyName:  actor.CompanyName,
		ProfileImage: actor.ProfileImage,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// ペイロードは固定構造なのでここには到達しないはずだが、
		// 到達しても通知自体は空ペイロードで発行する
		data = []byte("{}")
	}

	n := &model.Notification{
		ID:        uuid.New().String(),
		UserID:    targetUserID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		Data:      string(data),
		CreatedAt: time.Now().UTC(),
	}

	if err := d.notificationRepo.Create(ctx, n); err != nil {
		slog.Error("通知の発行に失敗しました",
			slog.String("type", string(notificationType)),
			slog.String("user_id", targetUserID),
			slog.String("connection_id", conn.ID),
			slog.String("error", err.Error()),
		)
		if d.metrics != nil {
			d.metrics.RecordNotificationFailure()
		}
		return
	}

	if d.metrics != nil {
		d.metrics.RecordNotificationEmitted(string(notificationType))
	}
}
