// Package webhook はGitHubから送信されるWebhookの署名検証を提供する。
//
// GitHubはWebhook登録時に設定した共有シークレットを使ってペイロードの
// HMAC署名を計算し、X-Hub-Signatureヘッダーに付与する。同じ計算を
// 受信側で行い一致を確認することで、リクエストがGitHubから送信された
// ことを保証する。
package webhook
