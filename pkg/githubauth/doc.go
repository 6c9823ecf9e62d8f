// Package githubauth はGitHub Appとしての認証と資格昇格を提供する。
//
// 認証は2段階で行う。まずAppの秘密鍵でRS256署名した短命のJWT
// （署名付きアサーション）を作成してApp自身を証明し、次にそのJWTを
// GitHubのトークン発行APIに提示して、特定インストールのリソースに
// のみ有効な短命のアクセストークンに交換する。
//
// アサーションとインストールトークンはどちらもプロセス内キャッシュで
// 有効期限まで再利用でき、リクエストごとの再署名・再交換を避ける。
package githubauth
