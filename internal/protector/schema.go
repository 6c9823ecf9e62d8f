package protector

import (
	"encoding/json"
	"fmt"
)

// WebhookEvent はGitHubから受信するWebhookペイロードの型付きエンベロープ。
// 文字列キーでの動的アクセスではなく、受信境界で一度だけパースして
// 以降は型を通して参照する。
type WebhookEvent struct {
	// Action はイベント内の操作種別（"created"、"deleted"など）。
	Action string `json:"action"`
	// Repository はイベントの対象リポジトリ。
	Repository Repository `json:"repository"`
	// Sender はイベントを発生させたユーザー。
	Sender Sender `json:"sender"`
	// Installation はWebhookを配送したAppインストール。
	Installation Installation `json:"installation"`
}

// Repository はイベント対象リポジトリの情報。
type Repository struct {
	// FullName は "owner/name" 形式のリポジトリ名。
	FullName string `json:"full_name"`
	// DefaultBranch はデフォルトブランチ名（通常 "main"）。
	DefaultBranch string `json:"default_branch"`
}

// Sender はイベントを発生させたユーザーの情報。
type Sender struct {
	// Login はユーザーのログイン名。
	Login string `json:"login"`
}

// Installation はWebhookを配送したAppインストールの情報。
type Installation struct {
	// ID はインストールの識別子。トークン交換に使用する。
	ID int64 `json:"id"`
}

// parseWebhookEvent は生のペイロードを型付きエンベロープにパースする。
// JSONとして不正な場合はこの境界で即座に失敗させ、ハンドラの奥で
// キー欠落により失敗することを防ぐ。
func parseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("ペイロードのパースに失敗: %w", err)
	}
	return &event, nil
}
