// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Role はユーザーの役割を表す。
type Role string

const (
	// RoleJobSeeker は求職者を示す。
	RoleJobSeeker Role = "jobseeker"
	// RoleRecruiter は採用担当者を示す。
	RoleRecruiter Role = "recruiter"
)

// User は統合後の正規ユーザーを表す。
// メールアドレス（正規化済み）をジョインキーとして、レガシーな
// 役割別レコード（JobSeekerRecord / RecruiterRecord）と紐付く。
// 正規化メールアドレスごとに高々1件しか存在しない。
type User struct {
	ID           string
	Email        string
	FullName     string
	Role         Role
	Headline     string
	CompanyName  string
	Location     string
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobSeekerRecord は旧システム由来の求職者レコードを表す。
// Userとは正規化メールアドレスによるソフトジョインのみで、外部キーは持たない。
// 本サブシステムは読み取り専用で扱う。
type JobSeekerRecord struct {
	ID              string
	Email           string
	FullName        string
	CurrentJobTitle string
	City            string
	State           string
	Country         string
	IsActive        bool
	CreatedAt       time.Time
}

// RecruiterRecord は旧システム由来の採用担当者レコードを表す。
// 本サブシステムは読み取り専用で扱う。
type RecruiterRecord struct {
	ID          string
	Email       string
	FullName    string
	CompanyName string
	Position    string
	Industry    string
	City        string
	State       string
	Country     string
	IsActive    bool
	CreatedAt   time.Time
}

// Session はユーザーのログインセッションを表す。
// セッションの発行は対象外サブシステムの責務で、本モジュールは検証のみ行う。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ProfileSnapshot はAPI応答や通知ペイロードに埋め込むユーザー情報の断面。
type ProfileSnapshot struct {
	ID           string
	FullName     string
	Role         Role
	Headline     string
	CompanyName  string
	Location     string
	ProfileImage string
}

// Snapshot はUserからProfileSnapshotを生成する。
func (u *User) Snapshot() ProfileSnapshot {
	return ProfileSnapshot{
		ID:           u.ID,
		FullName:     u.FullName,
		Role:         u.Role,
		Headline:     u.Headline,
		CompanyName:  u.CompanyName,
		Location:     u.Location,
		ProfileImage: u.ProfileImage,
	}
}

// NormalizeEmail はメールアドレスをジョインキー形式（trim + 小文字化）に正規化する。
// 統合ユーザーの一意性はこの正規形に対して保証される。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// JoinLocation はcity/state/countryの三つ組を表示用の1文字列に結合する。
// 空要素は読み飛ばす。全て空の場合は空文字列を返す。
func JoinLocation(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, ", ")
}
