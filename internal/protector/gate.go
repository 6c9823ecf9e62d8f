package protector

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/nao1215/branch-protector/pkg/githubauth"
	"github.com/nao1215/branch-protector/pkg/metrics"
	"github.com/nao1215/branch-protector/pkg/webhook"
)

// AuthContext は認証ゲートを通過したリクエストに渡す認証済みコンテキスト。
// 生成したリクエストだけが所有し、リクエスト間で共有してはならない。
type AuthContext struct {
	// Event は型付きエンベロープにパース済みのWebhookイベント。
	Event *WebhookEvent
	// Credential はイベントのインストールスコープの資格情報。
	Credential *githubauth.InstallationCredential
}

// rejection は認証ゲートがリクエストを拒否したことを表す。
type rejection struct {
	// status はクライアントに返すHTTPステータスコード。
	status int
	// message はクライアントに返すエラーメッセージ。
	message string
}

// gate はイベント処理前に評価する認証ゲート。
// 署名検証 → App認証 → インストール認証 の順で進み、どの段階の失敗でも
// そこで停止する。段階の省略はイベント種別によらず許されない。
type gate struct {
	// webhookSecret はWebhook署名検証用の共有シークレット。
	webhookSecret string
	// broker はアサーションをインストールトークンに交換するBroker。
	broker *githubauth.Broker
	// metrics は監視用メトリクス。
	metrics *metrics.Metrics
}

// newGate は新しい認証ゲートを生成する。
func newGate(webhookSecret string, broker *githubauth.Broker, m *metrics.Metrics) *gate {
	return &gate{
		webhookSecret: webhookSecret,
		broker:        broker,
		metrics:       m,
	}
}

// authenticate は受信リクエストに対して認証ゲートを実行する。
// 成功時は認証済みコンテキストを、拒否時は拒否理由を返す。
// 認証段階のエラーで副作用のあるアクションが実行されることは決してない。
func (g *gate) authenticate(ctx context.Context, raw []byte, signatureHeader, eventType string) (*AuthContext, *rejection) {
	// Received → SignatureChecked
	// ヘッダーの欠落も明示的に拒否する（暗黙の空ダイジェスト比較に頼らない）。
	if !webhook.Verify(raw, signatureHeader, g.webhookSecret) {
		return nil, &rejection{status: http.StatusUnauthorized, message: "署名の検証に失敗しました"}
	}

	// 署名済みペイロードを境界で一度だけパースする
	event, err := parseWebhookEvent(raw)
	if err != nil {
		return nil, &rejection{status: http.StatusBadRequest, message: "ペイロードがJSONとして不正です"}
	}

	log.Printf("---- イベントを受信: event=%s", eventType)
	if event.Action != "" {
		log.Printf("----     action=%s", event.Action)
	}

	// AppAuthenticated → InstallationAuthenticated
	// インストールIDがなければトークンのスコープを決められない
	if event.Installation.ID == 0 {
		return nil, &rejection{status: http.StatusBadRequest, message: "ペイロードにインストールIDが存在しません"}
	}

	g.metrics.TokenExchangesTotal.Inc()
	credential, err := g.broker.InstallationToken(ctx, event.Installation.ID)
	if err != nil {
		var escErr *githubauth.EscalationError
		if errors.As(err, &escErr) {
			log.Printf("資格昇格に失敗: installation=%d, status=%d", event.Installation.ID, escErr.StatusCode)
			if escErr.Forbidden() {
				return nil, &rejection{status: http.StatusForbidden, message: "インストールに対する認可がありません"}
			}
			return nil, &rejection{status: http.StatusBadGateway, message: "インストールトークンの取得に失敗しました"}
		}
		// アサーション発行の失敗は起動時に検証済みの鍵が壊れた場合のみで、
		// 本来は起動時致命クラスの異常。リクエストとしては500で応答する。
		log.Printf("アサーションの発行に失敗: %v", err)
		return nil, &rejection{status: http.StatusInternalServerError, message: "App認証に失敗しました"}
	}

	// InstallationAuthenticated → Ready
	return &AuthContext{Event: event, Credential: credential}, nil
}
