// デフォルトブランチ保護サービスのエントリポイント。
// GitHub AppとしてWebhookを受信し、新規リポジトリのデフォルトブランチに
// 保護設定を適用して作成者に通知する。
package main

import (
	"log"

	"github.com/nao1215/branch-protector/internal/protector"
)

func main() {
	config, err := protector.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	server, err := protector.NewServer(config)
	if err != nil {
		log.Fatalf("サーバーの初期化に失敗: %v", err)
	}

	log.Printf("デフォルトブランチ保護サービスを起動します: :%s", config.Port)
	if err := server.Run(); err != nil {
		log.Fatalf("サーバーの起動に失敗: %v", err)
	}
}
