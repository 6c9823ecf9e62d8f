// Package metrics はサービスの監視用Prometheusメトリクスを提供する。
//
// Webhookの受信数・拒否数、トークン交換数、処理時間などを計測し、
// GET /metrics エンドポイントで公開する。
package metrics
