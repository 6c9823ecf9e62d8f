package githubauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nao1215/branch-protector/pkg/githubapi"
)

// EscalationError はアサーションからインストールトークンへの交換が
// 失敗したことを表す。同一リクエスト内での自動リトライは行わない。
type EscalationError struct {
	// StatusCode はGitHubが返したHTTPステータスコード。通信エラー時は0。
	StatusCode int
	// Err は元のエラー。
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *EscalationError) Error() string {
	return fmt.Sprintf("インストールトークンへの交換に失敗: %v", e.Err)
}

// Unwrap はエラーチェーンのために元のエラーを返す。
func (e *EscalationError) Unwrap() error { return e.Err }

// Forbidden はGitHub側が認可エラーとして拒否したかどうかを返す。
func (e *EscalationError) Forbidden() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Broker は署名付きアサーションをインストールスコープのトークンに交換する。
// アサーションとトークンの両方をキャッシュで再利用する。
type Broker struct {
	// identity はGitHub Appの識別情報。
	identity AppIdentity
	// client はGitHub APIクライアント。
	client *githubapi.Client
	// cache は資格情報のキャッシュ。
	cache Cache
	// now は現在時刻の取得関数。テストで差し替える。
	now func() time.Time
}

// InstallationCredential は1つのインストールに対してのみ有効な
// 短命のbearerトークン。ディスクには決して永続化しない。
type InstallationCredential struct {
	// Token はGitHub APIに提示するbearerトークン。ログに出力してはならない。
	Token string
	// InstallationID はトークンのスコープであるインストールの識別子。
	InstallationID int64
	// ExpiresAt はGitHubが決定したトークンの有効期限。
	ExpiresAt time.Time
}

// NewBroker は新しいBrokerを生成する。
func NewBroker(identity AppIdentity, client *githubapi.Client, cache Cache) *Broker {
	return &Broker{
		identity: identity,
		client:   client,
		cache:    cache,
		now:      time.Now,
	}
}

// InstallationToken は指定インストール用のアクセストークンを取得する。
// キャッシュに有効なトークンがあればそれを返し、なければアサーションを
// 用意してGitHubのトークン発行APIと交換する。
//
// 交換の失敗はすべて*EscalationErrorとして返す。呼び出し側は処理を
// 中断しなければならず、このリクエスト内で再試行してはならない。
func (b *Broker) InstallationToken(ctx context.Context, installationID int64) (*InstallationCredential, error) {
	key := InstallationCacheKey(installationID)
	if cached, ok := b.cache.Get(key); ok {
		return &InstallationCredential{
			Token:          cached.Value,
			InstallationID: installationID,
			ExpiresAt:      cached.ExpiresAt,
		}, nil
	}

	now := b.now()
	assertion, err := b.appAssertion(now)
	if err != nil {
		return nil, err
	}

	// 期限切れアサーションはGitHub側でも拒否されるが、多層防御として
	// ローカルでも提示前に確認する。
	if assertion.Expired(now) {
		return nil, &EscalationError{Err: errors.New("アサーションが期限切れのため交換できない")}
	}

	token, err := b.client.CreateInstallationToken(ctx, assertion.Token, installationID)
	if err != nil {
		var statusErr *githubapi.StatusError
		if errors.As(err, &statusErr) {
			return nil, &EscalationError{StatusCode: statusErr.StatusCode, Err: err}
		}
		return nil, &EscalationError{Err: err}
	}

	b.cache.Put(key, Credential{Value: token.Token, ExpiresAt: token.ExpiresAt})

	return &InstallationCredential{
		Token:          token.Token,
		InstallationID: installationID,
		ExpiresAt:      token.ExpiresAt,
	}, nil
}

// appAssertion はキャッシュされた未失効のアサーションを返すか、新規に発行する。
func (b *Broker) appAssertion(now time.Time) (Assertion, error) {
	if cached, ok := b.cache.Get(CacheKeyApp); ok {
		return Assertion{Token: cached.Value, ExpiresAt: cached.ExpiresAt}, nil
	}

	assertion, err := MintAssertion(b.identity, now)
	if err != nil {
		return Assertion{}, err
	}
	b.cache.Put(CacheKeyApp, Credential{Value: assertion.Token, ExpiresAt: assertion.ExpiresAt})
	return assertion, nil
}
