// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントが分岐できるよう、安定したエラーコードとカテゴリを持つ。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: identity, connection, notification, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeIdentityNotFound     = "IDENTITY_NOT_FOUND"
	ErrCodeInvalidTarget        = "INVALID_TARGET"
	ErrCodeAlreadyRelated       = "ALREADY_RELATED"
	ErrCodeConnectionNotFound   = "CONNECTION_NOT_FOUND"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeAlreadyResolved      = "ALREADY_RESOLVED"
	ErrCodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
	ErrCodeInvalidDirection     = "INVALID_DIRECTION"
	ErrCodeInvalidAction        = "INVALID_ACTION"
)

// NewIdentityNotFoundError は識別子をどのIDテーブルでも解決できなかった場合のエラーを生成する。
// 解決処理は未知の識別子に対してIDを発明しない。
func NewIdentityNotFoundError(identifier string) *APIError {
	return &APIError{
		Code:     ErrCodeIdentityNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", identifier),
		Category: "identity",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewInvalidTargetError は自分自身へのコネクションリクエストに対するエラーを生成する。
func NewInvalidTargetError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTarget,
		Message:  "自分自身にコネクションリクエストを送ることはできません。",
		Category: "validation",
		Action:   "別のユーザーを指定してください。",
	}
}

// NewAlreadyRelatedError は同一ペアに有効なエッジが既に存在する場合のエラーを生成する。
func NewAlreadyRelatedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyRelated,
		Message:  "このユーザーとのコネクションは既に存在するか、回答待ちです。",
		Category: "connection",
		Action:   "コネクション一覧または回答待ちリクエストを確認してください。",
	}
}

// NewConnectionNotFoundError はコネクションが見つからない場合のエラーを生成する。
func NewConnectionNotFoundError(connectionID string) *APIError {
	return &APIError{
		Code:     ErrCodeConnectionNotFound,
		Message:  fmt.Sprintf("指定されたコネクションが見つかりません: %s", connectionID),
		Category: "connection",
		Action:   "コネクションIDを確認してください。",
	}
}

// NewForbiddenError は操作主体に権限がない場合のエラーを生成する。
// 回答は受信者のみ、削除は当事者のみが行える。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この操作を行う権限がありません: %s", reason),
		Category: "connection",
		Action:   "自分宛てのリクエストまたは自分のコネクションに対してのみ操作できます。",
	}
}

// NewAlreadyResolvedError は終端状態のレコードへの再遷移に対するエラーを生成する。
func NewAlreadyResolvedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyResolved,
		Message:  "このコネクションリクエストは既に回答済みです。",
		Category: "connection",
		Action:   "最新のコネクション状態を確認してください。",
	}
}

// NewNotificationNotFoundError は通知が見つからない場合のエラーを生成する。
func NewNotificationNotFoundError(notificationID string) *APIError {
	return &APIError{
		Code:     ErrCodeNotificationNotFound,
		Message:  fmt.Sprintf("指定された通知が見つかりません: %s", notificationID),
		Category: "notification",
		Action:   "通知IDを確認してください。",
	}
}

// NewInvalidDirectionError は回答待ち一覧のdirection指定が不正な場合のエラーを生成する。
func NewInvalidDirectionError(direction string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDirection,
		Message:  fmt.Sprintf("無効なdirectionです: %s", direction),
		Category: "validation",
		Action:   "directionにはreceivedまたはsentを指定してください。",
	}
}

// NewInvalidActionError は回答アクションが不正な場合のエラーを生成する。
func NewInvalidActionError(action string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAction,
		Message:  fmt.Sprintf("無効なアクションです: %s", action),
		Category: "validation",
		Action:   "actionにはacceptまたはdeclineを指定してください。",
	}
}
