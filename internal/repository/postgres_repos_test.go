package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
)

// 各Postgresリポジトリがインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ JobSeekerRepository = (*PostgresJobSeekerRepo)(nil)
	var _ RecruiterRepository = (*PostgresRecruiterRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ ConnectionRepository = (*PostgresConnectionRepo)(nil)
	var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
}

// コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil user repo")
	}
	if NewPostgresConnectionRepo(nil) == nil {
		t.Fatal("expected non-nil connection repo")
	}
	if NewPostgresNotificationRepo(nil) == nil {
		t.Fatal("expected non-nil notification repo")
	}
}

// isUniqueViolationがunique_violation以外のエラーにマッチしないことを検証
func TestIsUniqueViolation_OtherError(t *testing.T) {
	if isUniqueViolation(errors.New("connection refused"), "") {
		t.Error("expected plain error to not match")
	}
	if isUniqueViolation(nil, "") {
		t.Error("expected nil error to not match")
	}
}

// isUniqueViolationが制約名で絞り込めることを検証
func TestIsUniqueViolation_ConstraintName(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "users_email_lower_idx"}

	if !isUniqueViolation(pqErr, "users_email_lower_idx") {
		t.Error("expected violation to match its own constraint")
	}
	if !isUniqueViolation(pqErr, "") {
		t.Error("expected empty constraint to match any unique violation")
	}
	if isUniqueViolation(pqErr, "connections_active_pair_idx") {
		t.Error("expected violation to not match a different constraint")
	}
}

// isUniqueViolationがラップされたエラーからも検出できることを検証
func TestIsUniqueViolation_Wrapped(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "connections_active_pair_idx"}
	wrapped := errors.Join(errors.New("insert failed"), pqErr)

	if !isUniqueViolation(wrapped, "connections_active_pair_idx") {
		t.Error("expected wrapped violation to match")
	}
}

// foreign_key_violation（23503）がunique_violationと誤判定されないことを検証
func TestIsUniqueViolation_DifferentSQLState(t *testing.T) {
	pqErr := &pq.Error{Code: "23503"}
	if isUniqueViolation(pqErr, "") {
		t.Error("expected foreign key violation to not match")
	}
}
