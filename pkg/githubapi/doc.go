// Package githubapi はGitHub REST APIへのHTTP通信を行うクライアントを提供する。
//
// インストールアクセストークンの発行、ブランチ保護の設定、Issueの作成など、
// 本サービスがGitHubに対して行うAPI呼び出しのパターンを統一する。
// ベースURLを差し替えることでテスト時はhttptestサーバーに向けられる。
package githubapi
