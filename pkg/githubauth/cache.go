package githubauth

import (
	"fmt"
	"sync"
	"time"
)

// refreshMargin は有効期限の直前にキャッシュヒットを拒否する余裕時間。
// 取得直後に期限切れになる資格情報を払い出さないための値。
const refreshMargin = 30 * time.Second

// CacheKeyApp はアプリケーション単位のアサーションを格納するキー。
const CacheKeyApp = "app"

// InstallationCacheKey は指定インストールのトークンを格納するキーを返す。
func InstallationCacheKey(installationID int64) string {
	return fmt.Sprintf("installation/%d", installationID)
}

// Credential はキャッシュに格納する資格情報。
// アサーション（JWT）とインストールトークンの両方をこの形で扱う。
type Credential struct {
	// Value はトークン本体。ログに出力してはならない。
	Value string
	// ExpiresAt は資格情報の有効期限。
	ExpiresAt time.Time
}

// Cache は資格情報のプロセス内キャッシュ。
// AuthGateに注入して使用し、テストでは常にミスするNopCacheに差し替える。
type Cache interface {
	// Get はキーに対応する有効な資格情報を返す。
	// 期限切れ・期限間近の場合は見つからなかったものとして扱う。
	Get(key string) (Credential, bool)
	// Put は資格情報をキャッシュに格納する。
	Put(key string, credential Credential)
}

// MemoryCache はメモリ上の資格情報キャッシュ。複数ゴルーチンから安全に使用できる。
// 同時ミスした複数リクエストがそれぞれ発行処理を行う小さな重複は許容する
// （全リクエストを直列化するよりも安価なため）。
type MemoryCache struct {
	// mu はentriesを保護する。
	mu sync.RWMutex
	// entries はキーから資格情報へのマップ。
	entries map[string]Credential
	// now は現在時刻の取得関数。テストで差し替える。
	now func() time.Time
}

// NewMemoryCache は新しいメモリキャッシュを生成する。
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]Credential),
		now:     time.Now,
	}
}

// Get はキーに対応する有効な資格情報を返す。
func (c *MemoryCache) Get(key string) (Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	credential, ok := c.entries[key]
	if !ok {
		return Credential{}, false
	}
	// 期限間近の資格情報は再発行させる
	if !c.now().Add(refreshMargin).Before(credential.ExpiresAt) {
		return Credential{}, false
	}
	return credential, true
}

// Put は資格情報をキャッシュに格納する。
func (c *MemoryCache) Put(key string, credential Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = credential
}

// NopCache は何も保持しないキャッシュ。
// テストで毎回の発行経路を確実に通すために使用する。
type NopCache struct{}

// Get は常にミスを返す。
func (NopCache) Get(_ string) (Credential, bool) { return Credential{}, false }

// Put は何もしない。
func (NopCache) Put(_ string, _ Credential) {}
