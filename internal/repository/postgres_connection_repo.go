package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/careerlink/internal/model"
)

// PostgresConnectionRepo はPostgreSQLを使用したコネクションリポジトリ。
// 格納は有向（requester→recipient）だが、ペア検索は常に両方向を対象にする。
type PostgresConnectionRepo struct {
	db *sql.DB
}

// NewPostgresConnectionRepo はPostgresConnectionRepoを生成する。
func NewPostgresConnectionRepo(db *sql.DB) *PostgresConnectionRepo {
	return &PostgresConnectionRepo{db: db}
}

const connectionColumns = `id, requester_id, recipient_id, status, message, created_at, updated_at, accepted_at`

// scanConnection は1行分のコネクションをスキャンする。
func scanConnection(scan func(dest ...any) error) (*model.Connection, error) {
	conn := &model.Connection{}
	var acceptedAt sql.NullTime
	err := scan(
		&conn.ID, &conn.RequesterID, &conn.RecipientID, &conn.Status,
		&conn.Message, &conn.CreatedAt, &conn.UpdatedAt, &acceptedAt,
	)
	if err != nil {
		return nil, err
	}
	if acceptedAt.Valid {
		conn.AcceptedAt = &acceptedAt.Time
	}
	return conn, nil
}

// FindByID は指定IDのコネクションを取得する。見つからない場合はnilを返す。
func (r *PostgresConnectionRepo) FindByID(ctx context.Context, id string) (*model.Connection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE id = $1`,
		id,
	)
	conn, err := scanConnection(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コネクションの取得に失敗しました: %w", err)
	}
	return conn, nil
}

// FindActiveByPair は無順序ペア{a, b}の有効なエッジを両方向から検索する。
func (r *PostgresConnectionRepo) FindActiveByPair(ctx context.Context, userA, userB string) (*model.Connection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections
		 WHERE status IN ('pending', 'accepted')
		   AND ((requester_id = $1 AND recipient_id = $2)
		     OR (requester_id = $2 AND recipient_id = $1))`,
		userA, userB,
	)
	conn, err := scanConnection(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ペアの有効エッジ検索に失敗しました: %w", err)
	}
	return conn, nil
}

// FindLatestByPair は無順序ペア{a, b}のレコードを状態を問わず検索する。
// 有効なエッジを優先し、なければ作成日時が最新のものを返す。
// declined履歴が残っていても、後からの新しいリクエストが答えを支配する。
func (r *PostgresConnectionRepo) FindLatestByPair(ctx context.Context, userA, userB string) (*model.Connection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections
		 WHERE (requester_id = $1 AND recipient_id = $2)
		    OR (requester_id = $2 AND recipient_id = $1)
		 ORDER BY (status IN ('pending', 'accepted')) DESC, created_at DESC
		 LIMIT 1`,
		userA, userB,
	)
	conn, err := scanConnection(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ペアのコネクション検索に失敗しました: %w", err)
	}
	return conn, nil
}

// Create はコネクションを作成する。
// 無順序ペアの部分一意制約に違反した場合はErrDuplicateActivePairを返す。
func (r *PostgresConnectionRepo) Create(ctx context.Context, conn *model.Connection) error {
	var acceptedAt any
	if conn.AcceptedAt != nil {
		acceptedAt = *conn.AcceptedAt
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO connections (id, requester_id, recipient_id, status, message, created_at, updated_at, accepted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		conn.ID, conn.RequesterID, conn.RecipientID, conn.Status,
		conn.Message, conn.CreatedAt, conn.UpdatedAt, acceptedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "connections_active_pair_idx") {
			return ErrDuplicateActivePair
		}
		return fmt.Errorf("コネクションの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatusIfPending はpending状態のレコードに限り状態を遷移させる。
// WHERE句でpendingを条件にすることで、並行する二重回答のうち
// ちょうど1つだけが行を更新できる。
func (r *PostgresConnectionRepo) UpdateStatusIfPending(ctx context.Context, id string, status model.ConnectionStatus, acceptedAt *time.Time) (bool, error) {
	var acceptedAtVal any
	if acceptedAt != nil {
		acceptedAtVal = *acceptedAt
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE connections
		 SET status = $2, accepted_at = $3, updated_at = now()
		 WHERE id = $1 AND status = 'pending'`,
		id, status, acceptedAtVal,
	)
	if err != nil {
		return false, fmt.Errorf("コネクション状態の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	return affected == 1, nil
}

// Delete は指定IDのコネクションを状態を問わず削除する。
func (r *PostgresConnectionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM connections WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("コネクションの削除に失敗しました: %w", err)
	}
	return nil
}

// ListPending は回答待ちのコネクションを作成日時の降順で取得する。
func (r *PostgresConnectionRepo) ListPending(ctx context.Context, userID string, received bool, offset, limit int) ([]*model.Connection, error) {
	column := "recipient_id"
	if !received {
		column = "requester_id"
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM connections
		 WHERE `+column+` = $1 AND status = 'pending'
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		userID, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("回答待ちコネクションの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectConnections(rows)
}

// ListByStatus は指定状態のコネクションを両方向から更新日時の降順で取得する。
func (r *PostgresConnectionRepo) ListByStatus(ctx context.Context, userID string, status model.ConnectionStatus, offset, limit int) ([]*model.Connection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM connections
		 WHERE (requester_id = $1 OR recipient_id = $1) AND status = $2
		 ORDER BY updated_at DESC
		 OFFSET $3 LIMIT $4`,
		userID, status, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("コネクション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectConnections(rows)
}

// CountByStatus は指定状態のコネクション数を両方向合算で返す。
func (r *PostgresConnectionRepo) CountByStatus(ctx context.Context, userID string, status model.ConnectionStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM connections
		 WHERE (requester_id = $1 OR recipient_id = $1) AND status = $2`,
		userID, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("コネクション数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// ListAcceptedPeerIDs は承認済みコネクションの相手側ユーザーID集合を返す。
// requester側とrecipient側の和集合を1クエリで取得する。
func (r *PostgresConnectionRepo) ListAcceptedPeerIDs(ctx context.Context, userID string) ([]string, error) {
	return r.listPartnerIDs(ctx, userID, `status = 'accepted'`)
}

// ListActivePartnerIDs は有効な（pending/accepted）エッジの相手側ユーザーIDを返す。
func (r *PostgresConnectionRepo) ListActivePartnerIDs(ctx context.Context, userID string) ([]string, error) {
	return r.listPartnerIDs(ctx, userID, `status IN ('pending', 'accepted')`)
}

// listPartnerIDs は指定条件のコネクションの相手側ユーザーIDを返す。
func (r *PostgresConnectionRepo) listPartnerIDs(ctx context.Context, userID, statusCond string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT CASE WHEN requester_id = $1 THEN recipient_id ELSE requester_id END
		 FROM connections
		 WHERE (requester_id = $1 OR recipient_id = $1) AND `+statusCond,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("コネクション相手の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("相手IDのスキャンに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("相手ID一覧の読み取りに失敗しました: %w", err)
	}

	return ids, nil
}

// collectConnections は結果セットからコネクションを読み出す。
func collectConnections(rows *sql.Rows) ([]*model.Connection, error) {
	var conns []*model.Connection
	for rows.Next() {
		conn, err := scanConnection(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("コネクション行のスキャンに失敗しました: %w", err)
		}
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コネクション一覧の読み取りに失敗しました: %w", err)
	}
	return conns, nil
}

// compile-time interface check
var _ ConnectionRepository = (*PostgresConnectionRepo)(nil)
