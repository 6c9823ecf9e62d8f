package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL はGitHub REST APIのベースURL。
const DefaultBaseURL = "https://api.github.com"

// acceptBranchProtection はブランチ保護APIのプレビュー機能
// （luke-cage: 必須レビュー数の指定）を有効にするAcceptヘッダー。
const acceptBranchProtection = "application/vnd.github.luke-cage-preview+json"

// requestTimeout はGitHub APIへの1リクエストあたりのタイムアウト。
// JWTの有効期限（10分）とは独立に、リクエスト全体を短く抑えるための値。
const requestTimeout = 10 * time.Second

// Client はGitHub REST APIへの通信クライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL。
	baseURL string
}

// StatusError はGitHub APIが2xx以外のステータスを返したことを表す。
// 呼び出し側はStatusCodeを見て認可エラー等を判別できる。
type StatusError struct {
	// StatusCode はAPIが返したHTTPステータスコード。
	StatusCode int
	// Body はAPIが返したレスポンスボディ（エラー詳細）。
	Body string
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("GitHub APIエラー: status=%d, body=%s", e.StatusCode, e.Body)
}

// InstallationToken はインストールアクセストークン発行APIのレスポンス。
type InstallationToken struct {
	// Token はインストールスコープのbearerトークン。
	Token string `json:"token"`
	// ExpiresAt はトークンの有効期限（GitHub側が決定する。通常約1時間）。
	ExpiresAt time.Time `json:"expires_at"`
}

// BranchProtection はブランチ保護設定APIのリクエストボディ。
type BranchProtection struct {
	// RequiredPullRequestReviews はマージ前に必要なレビューの設定。
	RequiredPullRequestReviews RequiredPullRequestReviews `json:"required_pull_request_reviews"`
	// EnforceAdmins は管理者にも保護設定を適用するかどうか。
	EnforceAdmins bool `json:"enforce_admins"`
	// RequiredStatusChecks は必須ステータスチェック。本サービスでは未使用（null）。
	RequiredStatusChecks *struct{} `json:"required_status_checks"`
	// Restrictions はプッシュ可能なユーザー制限。本サービスでは未使用（null）。
	Restrictions *struct{} `json:"restrictions"`
}

// RequiredPullRequestReviews はマージ前に必要なレビューの設定。
type RequiredPullRequestReviews struct {
	// RequiredApprovingReviewCount はマージに必要な承認レビュー数。
	RequiredApprovingReviewCount int `json:"required_approving_review_count"`
}

// New は新しいGitHub APIクライアントを生成する。
// baseURLが空の場合はDefaultBaseURLを使用する。
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
	}
}

// CreateInstallationToken は署名済みJWTをbearerとして提示し、
// 指定インストール用のアクセストークンを発行する。
func (c *Client) CreateInstallationToken(ctx context.Context, assertion string, installationID int64) (*InstallationToken, error) {
	path := fmt.Sprintf("/app/installations/%d/access_tokens", installationID)

	var token InstallationToken
	if err := c.doJSON(ctx, http.MethodPost, path, assertion, "", nil, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// BranchExists は指定リポジトリにブランチが存在するかを確認する。
// リポジトリ作成直後はデフォルトブランチが非同期に作成されるため、
// 呼び出し側はこの関数をポーリングに使用する。
func (c *Client) BranchExists(ctx context.Context, token, repoFullName, branch string) (bool, error) {
	path := fmt.Sprintf("/repos/%s/branches/%s", repoFullName, url.PathEscape(branch))

	err := c.doJSON(ctx, http.MethodGet, path, token, "", nil, nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ProtectBranch は指定ブランチに保護設定を適用する。
func (c *Client) ProtectBranch(ctx context.Context, token, repoFullName, branch string, protection BranchProtection) error {
	path := fmt.Sprintf("/repos/%s/branches/%s/protection", repoFullName, url.PathEscape(branch))
	return c.doJSON(ctx, http.MethodPut, path, token, acceptBranchProtection, protection, nil)
}

// CreateIssue は指定リポジトリにIssueを作成する。
func (c *Client) CreateIssue(ctx context.Context, token, repoFullName, title, body string) error {
	path := fmt.Sprintf("/repos/%s/issues", repoFullName)
	req := map[string]string{
		"title": title,
		"body":  body,
	}
	return c.doJSON(ctx, http.MethodPost, path, token, "", req, nil)
}

// doJSON はJSON形式のGitHub APIリクエストを実行する共通処理。
// tokenはAuthorizationヘッダーのbearer値、acceptは空でなければAcceptヘッダーに設定する。
func (c *Client) doJSON(ctx context.Context, method, path, token, accept string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if accept != "" {
		req.Header.Set("Accept", accept)
	} else {
		req.Header.Set("Accept", "application/vnd.github+json")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return nil
}
