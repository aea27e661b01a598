package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/careerlink/internal/model"
)

// PostgresJobSeekerRepo はPostgreSQLを使用したレガシー求職者リポジトリ。
// 読み取り専用。書き込みはプロフィールサブシステムが行う。
type PostgresJobSeekerRepo struct {
	db *sql.DB
}

// NewPostgresJobSeekerRepo はPostgresJobSeekerRepoを生成する。
func NewPostgresJobSeekerRepo(db *sql.DB) *PostgresJobSeekerRepo {
	return &PostgresJobSeekerRepo{db: db}
}

const jobSeekerColumns = `id, email, full_name, current_job_title, city, state, country, is_active, created_at`

// FindByID は指定IDの求職者レコードを取得する。見つからない場合はnilを返す。
func (r *PostgresJobSeekerRepo) FindByID(ctx context.Context, id string) (*model.JobSeekerRecord, error) {
	rec := &model.JobSeekerRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+jobSeekerColumns+` FROM job_seekers WHERE id = $1`,
		id,
	).Scan(
		&rec.ID, &rec.Email, &rec.FullName, &rec.CurrentJobTitle,
		&rec.City, &rec.State, &rec.Country, &rec.IsActive, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("求職者レコードの取得に失敗しました: %w", err)
	}
	return rec, nil
}

// ListActive は有効な求職者レコードを作成日時の降順で取得する。
func (r *PostgresJobSeekerRepo) ListActive(ctx context.Context, limit int) ([]*model.JobSeekerRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobSeekerColumns+` FROM job_seekers
		 WHERE is_active = TRUE
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("求職者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var recs []*model.JobSeekerRecord
	for rows.Next() {
		rec := &model.JobSeekerRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Email, &rec.FullName, &rec.CurrentJobTitle,
			&rec.City, &rec.State, &rec.Country, &rec.IsActive, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("求職者行のスキャンに失敗しました: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("求職者一覧の読み取りに失敗しました: %w", err)
	}

	return recs, nil
}

// PostgresRecruiterRepo はPostgreSQLを使用したレガシー採用担当者リポジトリ。
// 読み取り専用。
type PostgresRecruiterRepo struct {
	db *sql.DB
}

// NewPostgresRecruiterRepo はPostgresRecruiterRepoを生成する。
func NewPostgresRecruiterRepo(db *sql.DB) *PostgresRecruiterRepo {
	return &PostgresRecruiterRepo{db: db}
}

const recruiterColumns = `id, email, full_name, company_name, position, industry, city, state, country, is_active, created_at`

// FindByID は指定IDの採用担当者レコードを取得する。見つからない場合はnilを返す。
func (r *PostgresRecruiterRepo) FindByID(ctx context.Context, id string) (*model.RecruiterRecord, error) {
	rec := &model.RecruiterRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+recruiterColumns+` FROM recruiters WHERE id = $1`,
		id,
	).Scan(
		&rec.ID, &rec.Email, &rec.FullName, &rec.CompanyName, &rec.Position,
		&rec.Industry, &rec.City, &rec.State, &rec.Country, &rec.IsActive, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("採用担当者レコードの取得に失敗しました: %w", err)
	}
	return rec, nil
}

// ListActive は有効な採用担当者レコードを作成日時の降順で取得する。
func (r *PostgresRecruiterRepo) ListActive(ctx context.Context, limit int) ([]*model.RecruiterRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recruiterColumns+` FROM recruiters
		 WHERE is_active = TRUE
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("採用担当者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var recs []*model.RecruiterRecord
	for rows.Next() {
		rec := &model.RecruiterRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Email, &rec.FullName, &rec.CompanyName, &rec.Position,
			&rec.Industry, &rec.City, &rec.State, &rec.Country, &rec.IsActive, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("採用担当者行のスキャンに失敗しました: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("採用担当者一覧の読み取りに失敗しました: %w", err)
	}

	return recs, nil
}

// compile-time interface check
var (
	_ JobSeekerRepository = (*PostgresJobSeekerRepo)(nil)
	_ RecruiterRepository = (*PostgresRecruiterRepo)(nil)
)
