package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/careerlink/internal/model"
	"github.com/hitoshi/careerlink/internal/repository"
)

type mockUserRepo struct {
	findByIDFunc    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFunc func(ctx context.Context, email string) (*model.User, error)
	createFunc      func(ctx context.Context, user *model.User) error
	listRecentFunc  func(ctx context.Context, excludeIDs []string, limit int) ([]*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) ListRecent(ctx context.Context, excludeIDs []string, limit int) ([]*model.User, error) {
	if m.listRecentFunc != nil {
		return m.listRecentFunc(ctx, excludeIDs, limit)
	}
	return nil, nil
}

type mockJobSeekerRepo struct {
	findByIDFunc   func(ctx context.Context, id string) (*model.JobSeekerRecord, error)
	listActiveFunc func(ctx context.Context, limit int) ([]*model.JobSeekerRecord, error)
}

func (m *mockJobSeekerRepo) FindByID(ctx context.Context, id string) (*model.JobSeekerRecord, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockJobSeekerRepo) ListActive(ctx context.Context, limit int) ([]*model.JobSeekerRecord, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx, limit)
	}
	return nil, nil
}

type mockRecruiterRepo struct {
	findByIDFunc   func(ctx context.Context, id string) (*model.RecruiterRecord, error)
	listActiveFunc func(ctx context.Context, limit int) ([]*model.RecruiterRecord, error)
}

func (m *mockRecruiterRepo) FindByID(ctx context.Context, id string) (*model.RecruiterRecord, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRecruiterRepo) ListActive(ctx context.Context, limit int) ([]*model.RecruiterRecord, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx, limit)
	}
	return nil, nil
}

var (
	_ repository.UserRepository      = (*mockUserRepo)(nil)
	_ repository.JobSeekerRepository = (*mockJobSeekerRepo)(nil)
	_ repository.RecruiterRepository = (*mockRecruiterRepo)(nil)
)

// 3テーブルのIDはすべてUUID列のため、テストの識別子もUUID形式を使う。
const (
	canonicalUserID = "11111111-1111-4111-8111-111111111111"
	jobSeekerID     = "22222222-2222-4222-8222-222222222222"
	recruiterID     = "33333333-3333-4333-8333-333333333333"
	unknownID       = "44444444-4444-4444-8444-444444444444"
)

func TestResolve_CanonicalUser(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			if id == canonicalUserID {
				return &model.User{ID: canonicalUserID, Email: "alice@example.com"}, nil
			}
			return nil, nil
		},
	}
	resolver := NewResolver(userRepo, &mockJobSeekerRepo{}, &mockRecruiterRepo{}, nil)

	id, err := resolver.Resolve(context.Background(), canonicalUserID)
	if err != nil {
		t.Fatalf("エラーが発生しました: %v", err)
	}
	if id != canonicalUserID {
		t.Errorf("解決されたIDが不正です: got %s, want %s", id, canonicalUserID)
	}
}

func TestResolve_JobSeekerCreatesUnifiedUser(t *testing.T) {
	var created *model.User
	userRepo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	jobSeekerRepo := &mockJobSeekerRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.JobSeekerRecord, error) {
			if id == jobSeekerID {
				return &model.JobSeekerRecord{
					ID:              jobSeekerID,
					Email:           "  Bob@Example.COM ",
					FullName:        "Bob Tanaka",
					CurrentJobTitle: "Backend Engineer",
					City:            "Osaka",
					Country:         "Japan",
				}, nil
			}
			return nil, nil
		},
	}
	resolver := NewResolver(userRepo, jobSeekerRepo, &mockRecruiterRepo{}, nil)

	id, err := resolver.Resolve(context.Background(), jobSeekerID)
	if err != nil {
		t.Fatalf("エラーが発生しました: %v", err)
	}
	if created == nil {
		t.Fatal("統合ユーザーが作成されていません")
	}
	if id != created.ID {
		t.Errorf("作成されたユーザーのIDが返されていません: got %s, want %s", id, created.ID)
	}
	if created.Email != "bob@example.com" {
		t.Errorf("メールアドレスが正規化されていません: got %s", created.Email)
	}
	if created.Role != model.RoleJobSeeker {
		t.Errorf("役割が不正です: got %s", created.Role)
	}
	if created.Headline != "Backend Engineer" {
		t.Errorf("ヘッドラインが不正です: got %s", created.Headline)
	}
	if created.Location != "Osaka, Japan" {
		t.Errorf("所在地が不正です: got %s", created.Location)
	}
}

func TestResolve_RecruiterCarriesCompany(t *testing.T) {
	var created *model.User
	userRepo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	recruiterRepo := &mockRecruiterRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.RecruiterRecord, error) {
			return &model.RecruiterRecord{
				ID:          recruiterID,
				Email:       "carol@example.com",
				FullName:    "Carol Sato",
				CompanyName: "Acme K.K.",
				Position:    "Talent Lead",
			}, nil
		},
	}
	resolver := NewResolver(userRepo, &mockJobSeekerRepo{}, recruiterRepo, nil)

	if _, err := resolver.Resolve(context.Background(), recruiterID); err != nil {
		t.Fatalf("エラーが発生しました: %v", err)
	}
	if created == nil {
		t.Fatal("統合ユーザーが作成されていません")
	}
	if created.Role != model.RoleRecruiter {
		t.Errorf("役割が不正です: got %s", created.Role)
	}
	if created.CompanyName != "Acme K.K." {
		t.Errorf("会社名が不正です: got %s", created.CompanyName)
	}
	if created.Headline != "Talent Lead" {
		t.Errorf("ヘッドラインが不正です: got %s", created.Headline)
	}
}

func TestResolve_NotFound(t *testing.T) {
	resolver := NewResolver(&mockUserRepo{}, &mockJobSeekerRepo{}, &mockRecruiterRepo{}, nil)

	_, err := resolver.Resolve(context.Background(), unknownID)
	if err == nil {
		t.Fatal("エラーが返されるべきです")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("APIErrorが返されるべきです: got %T", err)
	}
	if apiErr.Code != model.ErrCodeIdentityNotFound {
		t.Errorf("エラーコードが不正です: got %s", apiErr.Code)
	}
}

// UUID構文でない識別子はどのテーブルにも存在し得ない。
// ストレージに問い合わせる前にNotFoundとして返し、
// UUID列へのバインドエラーがインフラ障害として漏れないことを検証する。
func TestResolve_MalformedIdentifierIsNotFound(t *testing.T) {
	repoCalled := false
	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			repoCalled = true
			return nil, errors.New(`pq: invalid input syntax for type uuid: "not-a-uuid"`)
		},
	}
	resolver := NewResolver(userRepo, &mockJobSeekerRepo{}, &mockRecruiterRepo{}, nil)

	_, err := resolver.Resolve(context.Background(), "not-a-uuid")
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("APIErrorが返されるべきです: got %T (%v)", err, err)
	}
	if apiErr.Code != model.ErrCodeIdentityNotFound {
		t.Errorf("エラーコードが不正です: got %s", apiErr.Code)
	}
	if repoCalled {
		t.Error("構文不正な識別子でストレージに問い合わせるべきではありません")
	}
}

func TestResolve_PreferCanonicalOverLegacy(t *testing.T) {
	jobSeekerCalled := false
	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	jobSeekerRepo := &mockJobSeekerRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.JobSeekerRecord, error) {
			jobSeekerCalled = true
			return nil, nil
		},
	}
	resolver := NewResolver(userRepo, jobSeekerRepo, &mockRecruiterRepo{}, nil)

	if _, err := resolver.Resolve(context.Background(), canonicalUserID); err != nil {
		t.Fatalf("エラーが発生しました: %v", err)
	}
	if jobSeekerCalled {
		t.Error("正規IDに一致した場合はレガシーテーブルを参照すべきではありません")
	}
}

func TestResolveOrCreateByEmail_ExistingUser(t *testing.T) {
	createCalled := false
	userRepo := &mockUserRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-9", Email: email}, nil
		},
		createFunc: func(ctx context.Context, user *model.User) error {
			createCalled = true
			return nil
		},
	}
	resolver := NewResolver(userRepo, &mockJobSeekerRepo{}, &mockRecruiterRepo{}, nil)

	id, err := resolver.ResolveOrCreateByEmail(context.Background(), "dave@example.com", LegacySnapshot{})
	if err != nil {
		t.Fatalf("エラーが発生しました: %v", err)
	}
	if id != "user-9" {
		t.Errorf("既存ユーザーのIDが返されるべきです: got %s", id)
	}
	if createCalled {
		t.Error("既存ユーザーがいる場合は作成すべきではありません")
	}
}

func TestResolveOrCreateByEmail_LosesRaceFallsBackToRead(t *testing.T) {
	findCalls := 0
	userRepo := &mockUserRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			findCalls++
			if findCalls == 1 {
				// 最初の検索時点ではまだ存在しない
				return nil, nil
			}
			// 並行作成の勝者
			return &model.User{ID: "winner-1", Email: email}, nil
		},
		createFunc: func(ctx context.Context, user *model.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	resolver := NewResolver(userRepo, &mockJobSeekerRepo{}, &mockRecruiterRepo{}, nil)

	id, err := resolver.ResolveOrCreateByEmail(context.Background(), "eve@example.com", LegacySnapshot{FullName: "Eve"})
	if err != nil {
		t.Fatalf("エラーが発生しました: %v", err)
	}
	if id != "winner-1" {
		t.Errorf("勝者のIDが返されるべきです: got %s", id)
	}
	if findCalls != 2 {
		t.Errorf("再読み込みは1回だけ行うべきです: got %d回の検索", findCalls)
	}
}

func TestResolveOrCreateByEmail_CreateFailure(t *testing.T) {
	userRepo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *model.User) error {
			return errors.New("接続エラー")
		},
	}
	resolver := NewResolver(userRepo, &mockJobSeekerRepo{}, &mockRecruiterRepo{}, nil)

	if _, err := resolver.ResolveOrCreateByEmail(context.Background(), "frank@example.com", LegacySnapshot{}); err == nil {
		t.Fatal("エラーが返されるべきです")
	}
}
