// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MessageSanitizerService はコネクション申請などユーザー入力の
// 自由記述メッセージをサニタイズし、XSS攻撃などのセキュリティリスクから
// ユーザーを保護する。bluemondayライブラリの厳格ポリシーで
// 全てのHTMLタグを除去し、プレーンテキストのみを通過させる。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MessageSanitizerService はユーザー入力メッセージのサニタイズ機能のインターフェースを定義する。
// コネクション申請メッセージの保存前に使用される。
type MessageSanitizerService interface {
	// Sanitize はメッセージからHTMLタグを全て除去したプレーンテキストを返す。
	// 前後の空白は取り除かれる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// messageSanitizer はMessageSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type messageSanitizer struct {
	policy *bluemonday.Policy
}

// NewMessageSanitizer はMessageSanitizerServiceの新しいインスタンスを生成する。
// メッセージは表示時にHTMLとして解釈されることがないため、
// 許可リストは空（StrictPolicy）で全タグを除去する。
func NewMessageSanitizer() *messageSanitizer {
	return &messageSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// インターフェース実装の確認
var _ MessageSanitizerService = (*messageSanitizer)(nil)

// Sanitize はメッセージをサニタイズしてプレーンテキストを返す。
func (s *messageSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
