// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/careerlink/internal/model"
)

// UserRepository は統合ユーザーの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。
	// 比較は大文字小文字を区別しない。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// 正規化メールアドレスが衝突した場合はErrDuplicateEmailを返す。
	// 並行get-or-createの敗者はこのエラーを合図に再読み込みへフォールバックする。
	Create(ctx context.Context, user *model.User) error

	// ListRecent は作成日時の降順でユーザーを取得する。
	// excludeIDsに含まれるユーザーは除外される。
	ListRecent(ctx context.Context, excludeIDs []string, limit int) ([]*model.User, error)
}

// JobSeekerRepository はレガシー求職者レコードの読み取りインターフェース。
// 書き込みは対象外のプロフィールサブシステムが行う。
type JobSeekerRepository interface {
	// FindByID は指定IDの求職者レコードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.JobSeekerRecord, error)

	// ListActive は有効な求職者レコードを作成日時の降順で取得する。
	ListActive(ctx context.Context, limit int) ([]*model.JobSeekerRecord, error)
}

// RecruiterRepository はレガシー採用担当者レコードの読み取りインターフェース。
type RecruiterRepository interface {
	// FindByID は指定IDの採用担当者レコードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.RecruiterRecord, error)

	// ListActive は有効な採用担当者レコードを作成日時の降順で取得する。
	ListActive(ctx context.Context, limit int) ([]*model.RecruiterRecord, error)
}

// SessionRepository はセッションデータの読み取りインターフェース。
// セッションの発行・破棄は認証サブシステムの責務。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// ConnectionRepository はコネクション（グラフのエッジ）の永続化インターフェース。
// 格納は有向だが、ペア検索系のメソッドは必ず両方向を見る。
type ConnectionRepository interface {
	// FindByID は指定IDのコネクションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Connection, error)

	// FindActiveByPair は無順序ペア{a, b}の有効な（pending/accepted）エッジを
	// 両方向から検索する。見つからない場合はnilを返す。
	FindActiveByPair(ctx context.Context, userA, userB string) (*model.Connection, error)

	// FindLatestByPair は無順序ペア{a, b}のレコードを状態を問わず検索する。
	// 有効なエッジを優先し、なければ作成日時が最新のものを返す。
	// 見つからない場合はnilを返す。
	FindLatestByPair(ctx context.Context, userA, userB string) (*model.Connection, error)

	// Create はコネクションを作成する。
	// 同一無順序ペアに有効なエッジが既に存在する場合はErrDuplicateActivePairを返す。
	// 存在チェックと挿入の間に割り込まれた場合も部分一意制約が同じエラーで報告する。
	Create(ctx context.Context, conn *model.Connection) error

	// UpdateStatusIfPending はpending状態のレコードに限り状態を遷移させる。
	// 遷移できた場合はtrueを返す。既に終端状態だった場合はfalseを返し、
	// レコードを変更しない。二重回答はこの戻り値で検出する。
	UpdateStatusIfPending(ctx context.Context, id string, status model.ConnectionStatus, acceptedAt *time.Time) (bool, error)

	// Delete は指定IDのコネクションを状態を問わず削除する。
	Delete(ctx context.Context, id string) error

	// ListPending は回答待ちのコネクションを作成日時の降順で取得する。
	// received=trueでrecipient側、falseでrequester側を取得する。
	ListPending(ctx context.Context, userID string, received bool, offset, limit int) ([]*model.Connection, error)

	// ListByStatus は指定状態のコネクションを両方向から更新日時の降順で取得する。
	ListByStatus(ctx context.Context, userID string, status model.ConnectionStatus, offset, limit int) ([]*model.Connection, error)

	// CountByStatus は指定状態のコネクション数を両方向合算で返す。
	CountByStatus(ctx context.Context, userID string, status model.ConnectionStatus) (int, error)

	// ListAcceptedPeerIDs は承認済みコネクションの相手側ユーザーID集合を返す。
	// 相互コネクション数の計算で繰り返し呼ばれるため、1クエリで完結する。
	ListAcceptedPeerIDs(ctx context.Context, userID string) ([]string, error)

	// ListActivePartnerIDs は有効な（pending/accepted）エッジの相手側ユーザーIDを返す。
	// サジェストの除外集合として使用する。
	ListActivePartnerIDs(ctx context.Context, userID string) ([]string, error)
}

// NotificationRepository は通知レコードの永続化インターフェース。
type NotificationRepository interface {
	// Create は通知を作成する。
	Create(ctx context.Context, n *model.Notification) error

	// FindByID は指定IDの通知を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Notification, error)

	// ListByUser はユーザーの通知を作成日時の降順で取得する。
	// unreadOnly=trueの場合は未読のみを対象にする。
	ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]*model.Notification, error)

	// CountByUser はユーザーの通知数を返す。unreadOnly=trueの場合は未読数を返す。
	CountByUser(ctx context.Context, userID string, unreadOnly bool) (int, error)

	// MarkRead は通知を既読にしてread_atを設定する。冪等。
	MarkRead(ctx context.Context, id string, readAt time.Time) error

	// MarkAllRead はユーザーの全未読通知を既読にする。
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) error

	// Delete は指定IDの通知を削除する。
	Delete(ctx context.Context, id string) error
}
