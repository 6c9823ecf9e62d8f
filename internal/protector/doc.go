// Package protector はデフォルトブランチ保護サービスの内部実装を提供する。
//
// GitHubからのWebhookを受信し、署名検証・App認証・インストール認証の
// 3段階からなる認証ゲートを通過したイベントだけをディスパッチャに渡す。
// リポジトリ作成イベントに対しては、デフォルトブランチへの保護設定の
// 適用と、作成者への通知Issueの作成を行う。
package protector
