// Package model はドメインモデルを定義する。
package model

import "time"

// ConnectionStatus はコネクションリクエストのライフサイクル状態を表す。
type ConnectionStatus string

const (
	// ConnectionPending は回答待ちの状態を示す。
	ConnectionPending ConnectionStatus = "pending"
	// ConnectionAccepted は承認済みの状態を示す。
	ConnectionAccepted ConnectionStatus = "accepted"
	// ConnectionDeclined は辞退済みの状態を示す。レコードとしては終端だが、
	// 同一ペアによる新たなリクエストは妨げない。
	ConnectionDeclined ConnectionStatus = "declined"
)

// IsActive はペア間の「生きているエッジ」かどうかを返す。
// pendingとacceptedのみが排他制約の対象になる。
func (s ConnectionStatus) IsActive() bool {
	return s == ConnectionPending || s == ConnectionAccepted
}

// PairStatus は2ユーザー間の関係を問い合わせたときの答えを表す。
// ConnectionStatusに「関係なし」を加えた集合。
type PairStatus string

const (
	// PairNone はコネクションレコードが存在しないことを示す。
	PairNone PairStatus = "none"
	// PairPending は回答待ちのリクエストが存在することを示す。
	PairPending PairStatus = "pending"
	// PairAccepted は承認済みのコネクションが存在することを示す。
	PairAccepted PairStatus = "accepted"
	// PairDeclined は直近のレコードが辞退済みであることを示す。
	PairDeclined PairStatus = "declined"
)

// Connection はソーシャルグラフのエッジを表す。
// 格納は有向（誰が誰に申請したか）だが、関係としては無向に扱う。
// requesterID・recipientIDは必ず正規ユーザーIDであり、
// 呼び出し側はIdentityResolverで解決してから渡す。
type Connection struct {
	ID          string
	RequesterID string
	RecipientID string
	Status      ConnectionStatus
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AcceptedAt  *time.Time
}

// Involves は指定ユーザーがこのエッジの当事者かどうかを返す。
func (c *Connection) Involves(userID string) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}

// PeerOf は指定ユーザーから見た相手側のユーザーIDを返す。
// 当事者でない場合は空文字列を返す。
func (c *Connection) PeerOf(userID string) string {
	switch userID {
	case c.RequesterID:
		return c.RecipientID
	case c.RecipientID:
		return c.RequesterID
	}
	return ""
}
