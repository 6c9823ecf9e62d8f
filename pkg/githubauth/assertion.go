package githubauth

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AssertionLifetime は署名付きアサーションの有効期間。
// GitHubが許容する上限の10分。これより長い値を要求してはならない。
const AssertionLifetime = 10 * time.Minute

// AppIdentity はGitHub Appの長期的な識別情報。
// 起動時に一度だけ読み込み、秘密鍵はメモリ上にのみ保持する。
type AppIdentity struct {
	// ID はApp登録時に割り当てられた識別子。
	ID string
	// PrivateKey はApp登録時に生成されたRSA秘密鍵。
	PrivateKey *rsa.PrivateKey
}

// Assertion はApp自身を証明する短命の署名付きJWT。
// 有効期限を過ぎたアサーションを提示してはならない。
type Assertion struct {
	// Token はRS256署名済みのJWT文字列。
	Token string
	// IssuedAt は発行時刻。
	IssuedAt time.Time
	// ExpiresAt は有効期限（発行時刻の10分後）。
	ExpiresAt time.Time
}

// Expired はアサーションが指定時刻の時点で期限切れかどうかを返す。
func (a Assertion) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// MintAssertion はApp自身を証明する署名付きアサーションを発行する。
// クレームは iat=now, exp=now+10分, iss=App識別子 の3つで、
// golang-jwtのRS256で署名する。入力と現在時刻のみに依存する純粋な処理。
//
// 署名は鍵が不正な場合にのみ失敗する。鍵は起動時の設定読み込みで
// 検証済みであるため、実行時の失敗は設定異常を意味する。
func MintAssertion(identity AppIdentity, now time.Time) (Assertion, error) {
	issuedAt := now
	expiresAt := now.Add(AssertionLifetime)

	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    identity.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(identity.PrivateKey)
	if err != nil {
		return Assertion{}, fmt.Errorf("アサーションの署名に失敗: %w", err)
	}

	return Assertion{
		Token:     signed,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
