// Package suggestion はコネクション候補のサジェストを提供する。
//
// 候補プールは統合ユーザーとレガシーレコードの両方から組み立てる。
// レガシーレコードはランク付けの前にID解決を通すため、候補として
// 表示されるIDは常に正規ユーザーIDになる。スコアは視点ユーザーとの
// 相互コネクション数（承認済みピア集合の共通部分の大きさ）。
package suggestion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hitoshi/careerlink/internal/identity"
	"github.com/hitoshi/careerlink/internal/model"
	"github.com/hitoshi/careerlink/internal/repository"
)

// rankerMetrics はサジェスト計算のメトリクス記録インターフェース。
type rankerMetrics interface {
	RecordSuggestionLatency(duration time.Duration)
}

// Candidate はサジェスト候補1件を表す。
type Candidate struct {
	Profile model.ProfileSnapshot
	// MutualConnections は視点ユーザーとの相互コネクション数。
	MutualConnections int
	// CreatedAt は同スコア内の並び替えに使う候補の作成日時。
	CreatedAt time.Time
}

// Service はコネクション候補の抽出とランク付けを提供する。
type Service struct {
	userRepo       repository.UserRepository
	jobSeekerRepo  repository.JobSeekerRepository
	recruiterRepo  repository.RecruiterRepository
	connectionRepo repository.ConnectionRepository
	resolver       *identity.Resolver
	metrics        rankerMetrics

	// poolSize はランク付け対象とする候補プールの上限。
	// ソース（統合ユーザー・求職者・採用担当者）ごとに適用される。
	poolSize int
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	jobSeekerRepo repository.JobSeekerRepository,
	recruiterRepo repository.RecruiterRepository,
	connectionRepo repository.ConnectionRepository,
	resolver *identity.Resolver,
	metrics rankerMetrics,
	poolSize int,
) *Service {
	return &Service{
		userRepo:       userRepo,
		jobSeekerRepo:  jobSeekerRepo,
		recruiterRepo:  recruiterRepo,
		connectionRepo: connectionRepo,
		resolver:       resolver,
		metrics:        metrics,
		poolSize:       poolSize,
	}
}

// Suggest は指定ユーザーへのコネクション候補を返す。
// 自分自身と、有効な（pending/accepted）エッジを持つ相手は除外される。
// 並び順は相互コネクション数の降順、同数なら作成日時の降順。
func (s *Service) Suggest(ctx context.Context, userID string, limit int) ([]*Candidate, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordSuggestionLatency(time.Since(start))
		}
	}()

	// 除外集合: 自分自身 + 有効なエッジの相手
	partnerIDs, err := s.connectionRepo.ListActivePartnerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("除外対象の取得に失敗しました: %w", err)
	}
	excluded := make(map[string]bool, len(partnerIDs)+1)
	excluded[userID] = true
	for _, id := range partnerIDs {
		excluded[id] = true
	}

	myPeers, err := s.acceptedPeerSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	pool, err := s.buildPool(ctx, excluded)
	if err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, 0, len(pool))
	for _, user := range pool {
		theirPeers, err := s.acceptedPeerSet(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, &Candidate{
			Profile:           user.Snapshot(),
			MutualConnections: intersectionSize(myPeers, theirPeers),
			CreatedAt:         user.CreatedAt,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].MutualConnections != candidates[j].MutualConnections {
			return candidates[i].MutualConnections > candidates[j].MutualConnections
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// buildPool は候補プールを組み立てる。
// 統合ユーザーを作成日時の降順で集めた後、レガシーレコードを
// ID解決してマージする。重複と除外対象はここで落とす。
func (s *Service) buildPool(ctx context.Context, excluded map[string]bool) (map[string]*model.User, error) {
	excludeIDs := make([]string, 0, len(excluded))
	for id := range excluded {
		excludeIDs = append(excludeIDs, id)
	}

	recent, err := s.userRepo.ListRecent(ctx, excludeIDs, s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("候補ユーザーの取得に失敗しました: %w", err)
	}

	pool := make(map[string]*model.User, len(recent))
	for _, user := range recent {
		pool[user.ID] = user
	}

	// レガシー側はメールアドレス経由で解決してから参加させる
	jobSeekers, err := s.jobSeekerRepo.ListActive(ctx, s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("求職者レコードの取得に失敗しました: %w", err)
	}
	for _, rec := range jobSeekers {
		s.mergeLegacy(ctx, pool, excluded, rec.Email, identity.SnapshotFromJobSeeker(rec))
	}

	recruiters, err := s.recruiterRepo.ListActive(ctx, s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("採用担当者レコードの取得に失敗しました: %w", err)
	}
	for _, rec := range recruiters {
		s.mergeLegacy(ctx, pool, excluded, rec.Email, identity.SnapshotFromRecruiter(rec))
	}

	return pool, nil
}

// mergeLegacy はレガシーレコードを解決してプールへ加える。
// 解決失敗は候補が1件減るだけなので、ログに残して処理を続ける。
func (s *Service) mergeLegacy(ctx context.Context, pool map[string]*model.User, excluded map[string]bool, email string, snapshot identity.LegacySnapshot) {
	resolvedID, err := s.resolver.ResolveOrCreateByEmail(ctx, email, snapshot)
	if err != nil {
		slog.Warn("レガシー候補のID解決に失敗しました", slog.String("error", err.Error()))
		return
	}
	if excluded[resolvedID] {
		return
	}
	if _, ok := pool[resolvedID]; ok {
		return
	}

	user, err := s.userRepo.FindByID(ctx, resolvedID)
	if err != nil || user == nil {
		slog.Warn("解決済み候補の読み込みに失敗しました", slog.String("user_id", resolvedID))
		return
	}
	pool[resolvedID] = user
}

// acceptedPeerSet は承認済みピアのID集合を返す。
func (s *Service) acceptedPeerSet(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := s.connectionRepo.ListAcceptedPeerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("承認済みピアの取得に失敗しました: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// intersectionSize は2つの集合の共通要素数を返す。
func intersectionSize(a, b map[string]bool) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for id := range a {
		if b[id] {
			count++
		}
	}
	return count
}
