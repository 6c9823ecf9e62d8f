package protector

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nao1215/branch-protector/pkg/githubapi"
)

// Config はサービスの起動時設定。環境変数から一度だけ読み込み、
// 以降は変更しない。秘密鍵と共有シークレットはログに出力してはならない。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// AppIdentifier はGitHub App登録時に割り当てられた識別子。
	AppIdentifier string
	// WebhookSecret はWebhook署名検証用の共有シークレット。
	WebhookSecret string
	// PrivateKey はGitHub AppのRSA秘密鍵。
	PrivateKey *rsa.PrivateKey
	// GitHubAPIURL はGitHub APIのベースURL。テストで差し替える。
	GitHubAPIURL string
}

// LoadConfig は環境変数からサービス設定を読み込む。
// .envファイルが存在すれば先に読み込む。必須の値が欠落している、
// または秘密鍵が不正な場合はエラーを返す（起動時致命エラー）。
func LoadConfig() (*Config, error) {
	// .envは開発時の利便のためで、存在しなくてもよい
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "3000")
	v.SetDefault("GITHUB_API_URL", githubapi.DefaultBaseURL)

	appID := v.GetString("GITHUB_APP_IDENTIFIER")
	if appID == "" {
		return nil, fmt.Errorf("環境変数GITHUB_APP_IDENTIFIERが設定されていない")
	}

	secret := v.GetString("GITHUB_WEBHOOK_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("環境変数GITHUB_WEBHOOK_SECRETが設定されていない")
	}

	pemKey := v.GetString("GITHUB_PRIVATE_KEY")
	if pemKey == "" {
		return nil, fmt.Errorf("環境変数GITHUB_PRIVATE_KEYが設定されていない")
	}

	privateKey, err := parsePrivateKey(pemKey)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:          v.GetString("PORT"),
		AppIdentifier: appID,
		WebhookSecret: secret,
		PrivateKey:    privateKey,
		GitHubAPIURL:  v.GetString("GITHUB_API_URL"),
	}, nil
}

// parsePrivateKey はPEM形式の秘密鍵文字列をパースする。
// 環境変数に設定する際に改行がリテラルの`\n`にエスケープされている
// 場合があるため、実際の改行に正規化してからパースする。
// ここで鍵の妥当性が確定するため、実行時の署名失敗は設定異常を意味する。
func parsePrivateKey(pemKey string) (*rsa.PrivateKey, error) {
	normalized := strings.ReplaceAll(pemKey, `\n`, "\n")

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalized))
	if err != nil {
		return nil, fmt.Errorf("GITHUB_PRIVATE_KEYのパースに失敗: %w", err)
	}
	return privateKey, nil
}
