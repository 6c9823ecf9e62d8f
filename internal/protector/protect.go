package protector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nao1215/branch-protector/pkg/githubapi"
)

// 新規リポジトリのデフォルトブランチ待機に使用するポーリング設定。
// リポジトリ作成直後、GitHubはデフォルトブランチを非同期に作成する。
const (
	// branchPollInitialInterval は最初のポーリング間隔。
	branchPollInitialInterval = 500 * time.Millisecond
	// branchPollMaxInterval はバックオフ後のポーリング間隔の上限。
	branchPollMaxInterval = 2 * time.Second
	// branchPollDeadline はポーリング全体の期限。
	branchPollDeadline = 10 * time.Second
)

// notificationIssueTitle は保護設定の通知Issueのタイトル。
const notificationIssueTitle = "Default Branch Protected 🔐"

// protectedBranchesHelpURL は保護ブランチの解説ページのURL。
const protectedBranchesHelpURL = "https://help.github.com/en/articles/about-protected-branches"

// defaultProtection は新規リポジトリに適用する固定の保護ポリシー。
// 2件以上の承認レビューを必須とし、管理者にも制限を適用する。
var defaultProtection = githubapi.BranchProtection{
	RequiredPullRequestReviews: githubapi.RequiredPullRequestReviews{
		RequiredApprovingReviewCount: 2,
	},
	EnforceAdmins: true,
}

// protectHandler はリポジトリ作成イベントに対してデフォルトブランチの
// 保護と通知Issueの作成を行うハンドラ。
type protectHandler struct {
	// client はGitHub APIクライアント。
	client *githubapi.Client
	// pollInitialInterval は最初のポーリング間隔。テストで短縮する。
	pollInitialInterval time.Duration
	// pollMaxInterval はポーリング間隔の上限。テストで短縮する。
	pollMaxInterval time.Duration
	// pollDeadline はポーリング全体の期限。テストで短縮する。
	pollDeadline time.Duration
}

// newProtectHandler は新しいprotectHandlerを生成する。
func newProtectHandler(client *githubapi.Client) *protectHandler {
	return &protectHandler{
		client:              client,
		pollInitialInterval: branchPollInitialInterval,
		pollMaxInterval:     branchPollMaxInterval,
		pollDeadline:        branchPollDeadline,
	}
}

// handleRepositoryCreated はrepositoryイベント（action=created）を処理する。
// デフォルトブランチの作成を待ってから保護設定を適用し、作成者に
// 通知Issueを作成する。すべてインストールトークンで認証して行う。
func (h *protectHandler) handleRepositoryCreated(ctx context.Context, auth *AuthContext) error {
	repo := auth.Event.Repository.FullName
	branch := auth.Event.Repository.DefaultBranch
	token := auth.Credential.Token

	if err := h.waitForBranch(ctx, token, repo, branch); err != nil {
		return fmt.Errorf("デフォルトブランチの待機に失敗: %w", err)
	}

	log.Printf("デフォルトブランチを保護: repo=%s, branch=%s", repo, branch)
	if err := h.client.ProtectBranch(ctx, token, repo, branch, defaultProtection); err != nil {
		return fmt.Errorf("ブランチ保護の設定に失敗: %w", err)
	}

	log.Printf("通知Issueを作成: repo=%s", repo)
	body := notificationIssueBody(auth.Event.Sender.Login, branch)
	if err := h.client.CreateIssue(ctx, token, repo, notificationIssueTitle, body); err != nil {
		return fmt.Errorf("通知Issueの作成に失敗: %w", err)
	}
	return nil
}

// waitForBranch はブランチが存在するまで上限付きバックオフでポーリングする。
// 既に存在すれば即座に返り、期限内に作成されなければエラーを返す。
func (h *protectHandler) waitForBranch(ctx context.Context, token, repo, branch string) error {
	pollCtx, cancel := context.WithTimeout(ctx, h.pollDeadline)
	defer cancel()

	interval := h.pollInitialInterval
	for {
		exists, err := h.client.BranchExists(pollCtx, token, repo, branch)
		if err == nil && exists {
			return nil
		}
		// 一時的なエラーも期限までは作成待ちとして扱う

		timer := time.NewTimer(interval)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			if err != nil {
				return fmt.Errorf("ブランチ%sの確認に失敗: %w", branch, err)
			}
			return fmt.Errorf("ブランチ%sが期限内に作成されなかった", branch)
		case <-timer.C:
		}

		interval *= 2
		if interval > h.pollMaxInterval {
			interval = h.pollMaxInterval
		}
	}
}

// notificationIssueBody は通知Issueの本文を生成する。
func notificationIssueBody(username, branch string) string {
	return fmt.Sprintf(`@%s: branch protection rules have been added to the `+"`%s`"+` branch.
- Collaborators cannot force push to the protected branch or delete the branch
- All commits must be made to a non-protected branch and submitted via a pull request
- There must be at least 2 approving reviews and no changes requested before a PR can be merged

**Note:** All configured restrictions are enforced for administrators.

You can learn more about protected branches here: [About protected branches - GitHub Help](%s)`,
		username, branch, protectedBranchesHelpURL)
}
