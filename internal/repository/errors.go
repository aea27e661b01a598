package repository

import (
	"errors"

	"github.com/lib/pq"
)

// 一意制約違反を呼び出し側の分岐材料として公開するためのセンチネルエラー。
// 並行作成の敗者側はこれらを合図に再読み込みまたはドメインエラーへ変換する。
var (
	// ErrDuplicateEmail は正規化メールアドレスの一意制約違反を示す。
	ErrDuplicateEmail = errors.New("user with the same normalized email already exists")

	// ErrDuplicateActivePair は無順序ペアの有効エッジ一意制約違反を示す。
	ErrDuplicateActivePair = errors.New("active connection already exists for the pair")
)

// uniqueViolationCode はPostgreSQLのunique_violation SQLSTATE。
const uniqueViolationCode = "23505"

// isUniqueViolation はエラーが指定インデックスの一意制約違反かどうかを判定する。
// constraint名が空の場合は任意の一意制約違反にマッチする。
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != uniqueViolationCode {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
