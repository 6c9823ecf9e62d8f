package protector

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/branch-protector/pkg/githubapi"
	"github.com/nao1215/branch-protector/pkg/githubauth"
	"github.com/nao1215/branch-protector/pkg/metrics"
	"github.com/nao1215/branch-protector/pkg/middleware"
)

// readinessMessage はGET /で返す稼働確認メッセージ。
const readinessMessage = "Success! Watching organization events for new repositories."

// Server はデフォルトブランチ保護サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// gate はイベント処理前に評価する認証ゲート。
	gate *gate
	// dispatcher は認証済みイベントの振り分け先。
	dispatcher *Dispatcher
	// metrics は監視用メトリクス。
	metrics *metrics.Metrics
}

// NewServer は新しいサーバーを生成する。
// 認証ゲート（署名検証・アサーション発行・トークン交換）と
// ディスパッチャ（リポジトリ作成イベントのハンドラ）を組み立てる。
func NewServer(config *Config) (*Server, error) {
	if config.PrivateKey == nil {
		return nil, fmt.Errorf("秘密鍵が設定されていない")
	}

	identity := githubauth.AppIdentity{
		ID:         config.AppIdentifier,
		PrivateKey: config.PrivateKey,
	}
	client := githubapi.New(config.GitHubAPIURL)
	broker := githubauth.NewBroker(identity, client, githubauth.NewMemoryCache())
	m := metrics.New()

	dispatcher := NewDispatcher()
	dispatcher.Register("repository", "created", newProtectHandler(client).handleRepositoryCreated)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:     router,
		port:       config.Port,
		gate:       newGate(config.WebhookSecret, broker, m),
		dispatcher: dispatcher,
		metrics:    m,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 稼働確認
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, readinessMessage)
	})

	// 監視用メトリクス
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// Webhook受信
	s.router.POST("/event_handler", s.handleEvent())
}

// handleEvent はWebhookイベントを受信するハンドラを返す。
// 認証ゲートを通過したイベントだけがディスパッチャに渡される。
// ハンドラに対応しないイベントも受理（200）として扱う。
func (s *Server) handleEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.metrics.WebhookEventsTotal.Inc()

		// 署名検証はワイヤ上のバイト列そのものに対して行うため、
		// パースより先に生のボディを読み取る
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			s.metrics.WebhookEventsRejectedTotal.Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディの読み取りに失敗しました"})
			return
		}

		eventType := c.GetHeader("X-GitHub-Event")
		signatureHeader := c.GetHeader("X-Hub-Signature")

		auth, rejected := s.gate.authenticate(c.Request.Context(), raw, signatureHeader, eventType)
		if rejected != nil {
			s.metrics.WebhookEventsRejectedTotal.Inc()
			c.JSON(rejected.status, gin.H{"error": rejected.message})
			return
		}

		handled, err := s.dispatcher.Dispatch(c.Request.Context(), eventType, auth)
		s.metrics.EventProcessingDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			// 認証は成功している。アクションの失敗として報告する。
			log.Printf("イベント処理に失敗: event=%s, action=%s: %v", eventType, auth.Event.Action, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "イベントの処理に失敗しました"})
			return
		}
		if !handled {
			log.Printf("対応するハンドラなし: event=%s, action=%s", eventType, auth.Event.Action)
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
