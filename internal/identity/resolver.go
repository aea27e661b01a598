// Package identity はID正規化（統合ユーザーへの解決）のドメインロジックを提供する。
//
// システムには3つの重なり合うIDテーブルが存在する:
// 統合後のusersと、旧システム由来のjob_seekers / recruiters。
// Resolverはそのどれに属するか分からない識別子を受け取り、
// 必要ならレガシーレコードから統合ユーザーを遅延作成した上で、
// 常にちょうど1つの正規ユーザーIDへ解決する。
// 正規ID空間（コネクション、通知）へ書き込む操作は、
// 出所不明のIDを必ずこのパッケージを通してから永続化する。
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/careerlink/internal/model"
	"github.com/hitoshi/careerlink/internal/repository"
)

// LegacySnapshot はレガシーレコードから抽出した、統合ユーザー作成用の断面。
type LegacySnapshot struct {
	FullName    string
	Role        model.Role
	Headline    string
	CompanyName string
	Location    string
}

// MetricsRecorder は解決処理のメトリクス記録インターフェース。
type MetricsRecorder interface {
	// RecordIdentityResolved は解決の成功をソース別（user/job_seeker/recruiter）に記録する。
	RecordIdentityResolved(source string)
	// RecordIdentityCreated は統合ユーザーの遅延作成を記録する。
	RecordIdentityCreated()
}

// Resolver は識別子を正規ユーザーIDへ解決するサービス。
// レガシーテーブルをID正規化のために読むことを許された唯一のコンポーネント。
type Resolver struct {
	userRepo      repository.UserRepository
	jobSeekerRepo repository.JobSeekerRepository
	recruiterRepo repository.RecruiterRepository
	metrics       MetricsRecorder
}

// NewResolver はResolverの新しいインスタンスを生成する。
func NewResolver(
	userRepo repository.UserRepository,
	jobSeekerRepo repository.JobSeekerRepository,
	recruiterRepo repository.RecruiterRepository,
	metrics MetricsRecorder,
) *Resolver {
	return &Resolver{
		userRepo:      userRepo,
		jobSeekerRepo: jobSeekerRepo,
		recruiterRepo: recruiterRepo,
		metrics:       metrics,
	}
}

// Resolve は識別子を正規ユーザーIDへ解決する。
// 判定の優先順位:
//  1. users.id に一致 → そのまま返す（最速パス）
//  2. job_seekers.id に一致 → メールアドレスでget-or-create
//  3. recruiters.id に一致 → 同上
//
// どこにも見つからない場合はIDENTITY_NOT_FOUNDを返す。
// 未知の識別子に対してIDを発明することはない。
func (r *Resolver) Resolve(ctx context.Context, identifier string) (string, error) {
	// 3テーブルともIDはUUID列。構文不正な識別子はどこにも存在し得ないため、
	// UUID列へのバインドエラー（SQLSTATE 22P02）になる前にNotFoundとして返す。
	if _, err := uuid.Parse(identifier); err != nil {
		return "", model.NewIdentityNotFoundError(identifier)
	}

	// 第1優先: 既に正規IDである
	user, err := r.userRepo.FindByID(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("正規ユーザーの検索に失敗しました: %w", err)
	}
	if user != nil {
		r.recordResolved("user")
		return user.ID, nil
	}

	// 第2優先: レガシー求職者ID
	jobSeeker, err := r.jobSeekerRepo.FindByID(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("求職者レコードの検索に失敗しました: %w", err)
	}
	if jobSeeker != nil {
		id, err := r.ResolveOrCreateByEmail(ctx, jobSeeker.Email, SnapshotFromJobSeeker(jobSeeker))
		if err != nil {
			return "", err
		}
		r.recordResolved("job_seeker")
		return id, nil
	}

	// 第3優先: レガシー採用担当者ID
	recruiter, err := r.recruiterRepo.FindByID(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("採用担当者レコードの検索に失敗しました: %w", err)
	}
	if recruiter != nil {
		id, err := r.ResolveOrCreateByEmail(ctx, recruiter.Email, SnapshotFromRecruiter(recruiter))
		if err != nil {
			return "", err
		}
		r.recordResolved("recruiter")
		return id, nil
	}

	return "", model.NewIdentityNotFoundError(identifier)
}

// ResolveOrCreateByEmail は正規化メールアドレスをジョインキーとして
// 統合ユーザーを検索し、存在しなければsnapshotから作成してIDを返す。
//
// 並行呼び出しで同じ未統合メールアドレスが同時に来ても、ユーザーが
// 2人できることはない: 作成はusersのlower(email)一意制約に挿入を
// 試みる形で行い、一意性違反は「他の呼び出しが先に作成した」合図として
// 1回だけ再読み込みにフォールバックする。read-then-insertではなく
// insert-attempt-then-fallback-to-readで競合窓を閉じる。
func (r *Resolver) ResolveOrCreateByEmail(ctx context.Context, email string, snapshot LegacySnapshot) (string, error) {
	normalized := model.NormalizeEmail(email)

	// 既に統合済みなら即返す
	existing, err := r.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		return "", fmt.Errorf("メールアドレスによるユーザー検索に失敗しました: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:          uuid.New().String(),
		Email:       normalized,
		FullName:    snapshot.FullName,
		Role:        snapshot.Role,
		Headline:    snapshot.Headline,
		CompanyName: snapshot.CompanyName,
		Location:    snapshot.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = r.userRepo.Create(ctx, user)
	if err == nil {
		slog.Info("統合ユーザーを遅延作成しました",
			slog.String("user_id", user.ID),
			slog.String("role", string(user.Role)),
		)
		if r.metrics != nil {
			r.metrics.RecordIdentityCreated()
		}
		return user.ID, nil
	}

	if err != repository.ErrDuplicateEmail {
		return "", fmt.Errorf("統合ユーザーの作成に失敗しました: %w", err)
	}

	// 一意性違反は並行作成の敗北。勝者のレコードを読み直す。
	winner, readErr := r.userRepo.FindByEmail(ctx, normalized)
	if readErr != nil {
		return "", fmt.Errorf("並行作成後の再読み込みに失敗しました: %w", readErr)
	}
	if winner == nil {
		// 挿入が弾かれたのに読めないのは異常（勝者が直後に削除された等）
		return "", fmt.Errorf("メールアドレスの一意性違反後にユーザーが見つかりません: %s", normalized)
	}

	return winner.ID, nil
}

// SnapshotFromJobSeeker は求職者レコードから作成用断面を組み立てる。
// headlineには現職タイトル、locationにはcity/state/countryの結合を使う。
func SnapshotFromJobSeeker(rec *model.JobSeekerRecord) LegacySnapshot {
	return LegacySnapshot{
		FullName: rec.FullName,
		Role:     model.RoleJobSeeker,
		Headline: rec.CurrentJobTitle,
		Location: model.JoinLocation(rec.City, rec.State, rec.Country),
	}
}

// SnapshotFromRecruiter は採用担当者レコードから作成用断面を組み立てる。
func SnapshotFromRecruiter(rec *model.RecruiterRecord) LegacySnapshot {
	return LegacySnapshot{
		FullName:    rec.FullName,
		Role:        model.RoleRecruiter,
		Headline:    rec.Position,
		CompanyName: rec.CompanyName,
		Location:    model.JoinLocation(rec.City, rec.State, rec.Country),
	}
}

// recordResolved は解決成功メトリクスを記録する。
func (r *Resolver) recordResolved(source string) {
	if r.metrics != nil {
		r.metrics.RecordIdentityResolved(source)
	}
}
