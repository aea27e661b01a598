// Package connection はソーシャルグラフのエッジ（コネクション）の
// ライフサイクルを管理するドメインロジックを提供する。
//
// エッジの状態機械は pending → accepted / declined の一方通行で、
// 終端状態からの再遷移は存在しない。同一無順序ペアに有効な
// （pending/accepted）エッジは高々1本というグラフ不変条件は、
// サービス層の事前チェックとストレージの部分一意制約の二段構えで守る。
package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/careerlink/internal/identity"
	"github.com/hitoshi/careerlink/internal/model"
	"github.com/hitoshi/careerlink/internal/repository"
)

// 回答アクション
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// direction指定
const (
	DirectionReceived = "received"
	DirectionSent     = "sent"
)

// Notifier はコネクションイベントの通知発行インターフェース。
// 発行はベストエフォートで、実装はエラーを返さない。
type Notifier interface {
	ConnectionRequested(ctx context.Context, conn *model.Connection, requester model.ProfileSnapshot)
	ConnectionAccepted(ctx context.Context, conn *model.Connection, recipient model.ProfileSnapshot)
	ConnectionDeclined(ctx context.Context, conn *model.Connection, recipient model.ProfileSnapshot)
}

// MessageSanitizer はリクエストメッセージのサニタイズインターフェース。
type MessageSanitizer interface {
	Sanitize(raw string) string
}

// serviceMetrics はコネクション操作のメトリクス記録インターフェース。
type serviceMetrics interface {
	RecordConnectionRequested()
	RecordConnectionTransition(status string)
	RecordConnectionRemoved()
}

// View はコネクションを片側の当事者から見た断面。
// API応答にはエッジ本体に加えて相手側のプロフィールを埋め込む。
type View struct {
	Connection *model.Connection
	Peer       model.ProfileSnapshot
	// IsInitiator は視点ユーザーが申請側かどうかを示す。
	IsInitiator bool
}

// ListResult はコネクション一覧の取得結果。
type ListResult struct {
	Items []*View
	Total int
}

// StatusResult は2ユーザー間の関係の問い合わせ結果。
// Connectionは関係が存在する場合のみ設定される。
type StatusResult struct {
	Status     model.PairStatus
	Connection *model.Connection
}

// Service はコネクションのライフサイクル操作を提供する。
type Service struct {
	connectionRepo repository.ConnectionRepository
	userRepo       repository.UserRepository
	resolver       *identity.Resolver
	sanitizer      MessageSanitizer
	notifier       Notifier
	metrics        serviceMetrics
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	connectionRepo repository.ConnectionRepository,
	userRepo repository.UserRepository,
	resolver *identity.Resolver,
	sanitizer MessageSanitizer,
	notifier Notifier,
	metrics serviceMetrics,
) *Service {
	return &Service{
		connectionRepo: connectionRepo,
		userRepo:       userRepo,
		resolver:       resolver,
		sanitizer:      sanitizer,
		notifier:       notifier,
		metrics:        metrics,
	}
}

// Request はコネクション申請を作成する。
// targetIdentifierは正規・レガシーどちらのID空間でもよく、解決してから扱う。
// 自分自身が対象の場合はINVALID_TARGET、
// 解決後のペアに有効なエッジが既にある場合はALREADY_RELATEDを返す。
//
// 存在チェックと挿入の間に並行リクエストが割り込んだ場合も、
// ストレージの部分一意制約が同じALREADY_RELATEDとして報告する。
// どちらの経路でも呼び出し側から見える結果は変わらない。
func (s *Service) Request(ctx context.Context, actingUserID, targetIdentifier, message string) (*View, error) {
	targetID, err := s.resolver.Resolve(ctx, targetIdentifier)
	if err != nil {
		return nil, err
	}

	if targetID == actingUserID {
		return nil, model.NewInvalidTargetError()
	}

	existing, err := s.connectionRepo.FindActiveByPair(ctx, actingUserID, targetID)
	if err != nil {
		return nil, fmt.Errorf("既存コネクションの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewAlreadyRelatedError()
	}

	now := time.Now().UTC()
	conn := &model.Connection{
		ID:          uuid.New().String(),
		RequesterID: actingUserID,
		RecipientID: targetID,
		Status:      model.ConnectionPending,
		Message:     s.sanitizer.Sanitize(message),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.connectionRepo.Create(ctx, conn); err != nil {
		if err == repository.ErrDuplicateActivePair {
			return nil, model.NewAlreadyRelatedError()
		}
		return nil, fmt.Errorf("コネクションの作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordConnectionRequested()
	}

	if s.notifier != nil {
		if requester := s.snapshotOf(ctx, actingUserID); requester != nil {
			s.notifier.ConnectionRequested(ctx, conn, *requester)
		}
	}

	return s.viewFor(ctx, conn, actingUserID), nil
}

// Respond は回答待ちのリクエストを承認または辞退する。
// 回答できるのはrecipientのみで、requester本人であってもFORBIDDENになる。
// 既に回答済みの場合はALREADY_RESOLVEDを返す。
//
// 状態遷移は「pendingの場合に限り更新」する条件付き更新で行うため、
// 並行する二重回答は片方だけが成功し、敗者はALREADY_RESOLVEDを受け取る。
func (s *Service) Respond(ctx context.Context, actingUserID, connectionID, action string) (*model.Connection, error) {
	var newStatus model.ConnectionStatus
	switch action {
	case ActionAccept:
		newStatus = model.ConnectionAccepted
	case ActionDecline:
		newStatus = model.ConnectionDeclined
	default:
		return nil, model.NewInvalidActionError(action)
	}

	// UUID構文でないIDはバインドエラーになる前にNotFound扱いにする
	if _, err := uuid.Parse(connectionID); err != nil {
		return nil, model.NewConnectionNotFoundError(connectionID)
	}

	conn, err := s.connectionRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("コネクションの検索に失敗しました: %w", err)
	}
	if conn == nil {
		return nil, model.NewConnectionNotFoundError(connectionID)
	}

	if conn.RecipientID != actingUserID {
		return nil, model.NewForbiddenError("回答できるのは受信者のみです")
	}

	if conn.Status != model.ConnectionPending {
		return nil, model.NewAlreadyResolvedError()
	}

	now := time.Now().UTC()
	var acceptedAt *time.Time
	if newStatus == model.ConnectionAccepted {
		acceptedAt = &now
	}

	updated, err := s.connectionRepo.UpdateStatusIfPending(ctx, connectionID, newStatus, acceptedAt)
	if err != nil {
		return nil, fmt.Errorf("コネクションの状態更新に失敗しました: %w", err)
	}
	if !updated {
		// 事前チェック後に別の回答が先に確定した
		return nil, model.NewAlreadyResolvedError()
	}

	conn.Status = newStatus
	conn.UpdatedAt = now
	conn.AcceptedAt = acceptedAt

	if s.metrics != nil {
		s.metrics.RecordConnectionTransition(string(newStatus))
	}

	if s.notifier != nil {
		if recipient := s.snapshotOf(ctx, conn.RecipientID); recipient != nil {
			switch newStatus {
			case model.ConnectionAccepted:
				s.notifier.ConnectionAccepted(ctx, conn, *recipient)
			case model.ConnectionDeclined:
				s.notifier.ConnectionDeclined(ctx, conn, *recipient)
			}
		}
	}

	return conn, nil
}

// Remove はコネクションを状態を問わず削除する。
// 削除できるのは当事者（requesterまたはrecipient）のみ。
// 削除後は同一ペアによる新たなリクエストが可能になる。
func (s *Service) Remove(ctx context.Context, actingUserID, connectionID string) error {
	if _, err := uuid.Parse(connectionID); err != nil {
		return model.NewConnectionNotFoundError(connectionID)
	}

	conn, err := s.connectionRepo.FindByID(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("コネクションの検索に失敗しました: %w", err)
	}
	if conn == nil {
		return model.NewConnectionNotFoundError(connectionID)
	}

	if !conn.Involves(actingUserID) {
		return model.NewForbiddenError("削除できるのは当事者のみです")
	}

	if err := s.connectionRepo.Delete(ctx, connectionID); err != nil {
		return fmt.Errorf("コネクションの削除に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordConnectionRemoved()
	}
	return nil
}

// Status は自分と相手の関係を問い合わせる。結果は方向に依存しない。
// 有効なエッジを優先し、なければ直近のレコードの状態を返す。
// レコードが存在しない場合はnoneを返す。
func (s *Service) Status(ctx context.Context, actingUserID, otherIdentifier string) (*StatusResult, error) {
	otherID, err := s.resolver.Resolve(ctx, otherIdentifier)
	if err != nil {
		return nil, err
	}

	if otherID == actingUserID {
		return &StatusResult{Status: model.PairNone}, nil
	}

	conn, err := s.connectionRepo.FindLatestByPair(ctx, actingUserID, otherID)
	if err != nil {
		return nil, fmt.Errorf("コネクションの検索に失敗しました: %w", err)
	}
	if conn == nil {
		return &StatusResult{Status: model.PairNone}, nil
	}

	return &StatusResult{
		Status:     model.PairStatus(conn.Status),
		Connection: conn,
	}, nil
}

// ListConnections は承認済みコネクションを更新日時の降順で取得する。
// 各項目には相手側のプロフィール断面を埋め込む。
func (s *Service) ListConnections(ctx context.Context, actingUserID string, offset, limit int) (*ListResult, error) {
	conns, err := s.connectionRepo.ListByStatus(ctx, actingUserID, model.ConnectionAccepted, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("コネクション一覧の取得に失敗しました: %w", err)
	}

	total, err := s.connectionRepo.CountByStatus(ctx, actingUserID, model.ConnectionAccepted)
	if err != nil {
		return nil, fmt.Errorf("コネクション数の取得に失敗しました: %w", err)
	}

	items := make([]*View, 0, len(conns))
	for _, conn := range conns {
		items = append(items, s.viewFor(ctx, conn, actingUserID))
	}

	return &ListResult{Items: items, Total: total}, nil
}

// ListPending は回答待ちのリクエストを作成日時の降順で取得する。
// directionにreceivedを指定すると自分宛て、sentで自分発を返す。
func (s *Service) ListPending(ctx context.Context, actingUserID, direction string, offset, limit int) ([]*View, error) {
	var received bool
	switch direction {
	case DirectionReceived:
		received = true
	case DirectionSent:
		received = false
	default:
		return nil, model.NewInvalidDirectionError(direction)
	}

	conns, err := s.connectionRepo.ListPending(ctx, actingUserID, received, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("回答待ちリクエストの取得に失敗しました: %w", err)
	}

	items := make([]*View, 0, len(conns))
	for _, conn := range conns {
		items = append(items, s.viewFor(ctx, conn, actingUserID))
	}
	return items, nil
}

// ListAcceptedPeerIDs は承認済みコネクションの相手側ユーザーID集合を返す。
// サジェスト計算から利用される。
func (s *Service) ListAcceptedPeerIDs(ctx context.Context, userID string) ([]string, error) {
	return s.connectionRepo.ListAcceptedPeerIDs(ctx, userID)
}

// viewFor はエッジを視点ユーザー側の断面に変換する。
// 相手側ユーザーが読めない場合はID以外が空の断面で埋める。
func (s *Service) viewFor(ctx context.Context, conn *model.Connection, viewerID string) *View {
	peerID := conn.PeerOf(viewerID)
	peer := s.snapshotOf(ctx, peerID)
	if peer == nil {
		peer = &model.ProfileSnapshot{ID: peerID}
	}
	return &View{
		Connection:  conn,
		Peer:        *peer,
		IsInitiator: conn.RequesterID == viewerID,
	}
}

// snapshotOf は指定ユーザーのプロフィール断面を取得する。読めない場合はnilを返す。
func (s *Service) snapshotOf(ctx context.Context, userID string) *model.ProfileSnapshot {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil
	}
	snapshot := user.Snapshot()
	return &snapshot
}
