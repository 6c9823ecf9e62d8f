// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// パニックリカバリ、リクエストIDの付与など、Webhook受信サーバーで
// 共通して使用するミドルウェアを含む。
package middleware
