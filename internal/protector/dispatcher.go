package protector

import (
	"context"
	"fmt"
)

// HandlerFunc は認証済みイベントを処理するハンドラ。
type HandlerFunc func(ctx context.Context, auth *AuthContext) error

// dispatchKey は(イベント種別, アクション)の組。
type dispatchKey struct {
	event  string
	action string
}

// Dispatcher は認証済みイベントを(イベント種別, アクション)で
// 対応するハンドラに振り分ける。対応するハンドラがないイベントは
// 何もせず受理する。
type Dispatcher struct {
	// handlers は(イベント種別, アクション)からハンドラへのマップ。
	handlers map[dispatchKey]HandlerFunc
}

// NewDispatcher は新しいDispatcherを生成する。
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[dispatchKey]HandlerFunc)}
}

// Register は(イベント種別, アクション)に対するハンドラを登録する。
func (d *Dispatcher) Register(eventType, action string, handler HandlerFunc) {
	d.handlers[dispatchKey{event: eventType, action: action}] = handler
}

// Dispatch はイベントを対応するハンドラに振り分ける。
// 戻り値はハンドラが見つかったかどうかと、ハンドラの実行結果。
// ハンドラ未登録のイベントは(false, nil)で受理扱いとする。
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, auth *AuthContext) (bool, error) {
	handler, ok := d.handlers[dispatchKey{event: eventType, action: auth.Event.Action}]
	if !ok {
		return false, nil
	}

	// 接続が切断済みのリクエストでは副作用のあるアクションを実行しない
	if err := ctx.Err(); err != nil {
		return true, fmt.Errorf("リクエストがキャンセルされたため処理を中止: %w", err)
	}

	return true, handler(ctx, auth)
}
