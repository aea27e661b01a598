// Package model はドメインモデルを定義する。
package model

import "time"

// NotificationType は通知の種別を表す。
type NotificationType string

const (
	// NotificationConnectionRequest はコネクションリクエスト受信の通知。
	NotificationConnectionRequest NotificationType = "connection_request"
	// NotificationConnectionAccepted はリクエスト承認の通知。
	NotificationConnectionAccepted NotificationType = "connection_accepted"
	// NotificationConnectionDeclined はリクエスト辞退の通知。
	NotificationConnectionDeclined NotificationType = "connection_declined"
)

// Notification はユーザーへの通知レコードを表す。
// コネクション状態遷移の副作用として作成され、既読トグルでのみ更新される。
// グラフのエッジが真実であり、通知はベストエフォートのエコーにすぎない。
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	Data      string // 不透明な構造化ペイロード（JSON文字列）
	IsRead    bool
	CreatedAt time.Time
	ReadAt    *time.Time
}
