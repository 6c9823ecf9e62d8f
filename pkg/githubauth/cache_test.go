package githubauth

import (
	"sync"
	"testing"
	"time"
)

// TestMemoryCache はMemoryCacheを検証する。
func TestMemoryCache(t *testing.T) {
	t.Parallel()

	t.Run("格納した資格情報を取得できること", func(t *testing.T) {
		t.Parallel()

		cache := NewMemoryCache()
		cache.Put("app", Credential{Value: "jwt-value", ExpiresAt: time.Now().Add(10 * time.Minute)})

		got, ok := cache.Get("app")
		if !ok {
			t.Fatal("Get() = miss, want hit")
		}
		if got.Value != "jwt-value" {
			t.Errorf("Value = %q, want %q", got.Value, "jwt-value")
		}
	})

	t.Run("存在しないキーはミスになること", func(t *testing.T) {
		t.Parallel()

		cache := NewMemoryCache()
		if _, ok := cache.Get("unknown"); ok {
			t.Error("Get() = hit, want miss")
		}
	})

	t.Run("期限切れの資格情報はミスになること", func(t *testing.T) {
		t.Parallel()

		cache := NewMemoryCache()
		cache.Put("app", Credential{Value: "stale", ExpiresAt: time.Now().Add(-time.Minute)})

		if _, ok := cache.Get("app"); ok {
			t.Error("期限切れエントリでGet() = hit, want miss")
		}
	})

	t.Run("期限間近の資格情報はミスになること", func(t *testing.T) {
		t.Parallel()

		cache := NewMemoryCache()
		// refreshMarginより短い残り時間
		cache.Put("app", Credential{Value: "expiring", ExpiresAt: time.Now().Add(10 * time.Second)})

		if _, ok := cache.Get("app"); ok {
			t.Error("期限間近エントリでGet() = hit, want miss")
		}
	})

	t.Run("上書きで新しい資格情報に置き換わること", func(t *testing.T) {
		t.Parallel()

		cache := NewMemoryCache()
		expiry := time.Now().Add(10 * time.Minute)
		cache.Put("app", Credential{Value: "old", ExpiresAt: expiry})
		cache.Put("app", Credential{Value: "new", ExpiresAt: expiry})

		got, ok := cache.Get("app")
		if !ok {
			t.Fatal("Get() = miss, want hit")
		}
		if got.Value != "new" {
			t.Errorf("Value = %q, want %q", got.Value, "new")
		}
	})

	t.Run("並行アクセスでも破綻しないこと", func(t *testing.T) {
		t.Parallel()

		cache := NewMemoryCache()
		expiry := time.Now().Add(10 * time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				cache.Put("app", Credential{Value: "concurrent", ExpiresAt: expiry})
			}()
			go func() {
				defer wg.Done()
				_, _ = cache.Get("app")
			}()
		}
		wg.Wait()

		if got, ok := cache.Get("app"); !ok || got.Value != "concurrent" {
			t.Errorf("並行書き込み後のGet() = (%v, %v), want (concurrent, true)", got.Value, ok)
		}
	})
}

// TestNopCache はNopCacheを検証する。
func TestNopCache(t *testing.T) {
	t.Parallel()

	cache := NopCache{}
	cache.Put("app", Credential{Value: "ignored", ExpiresAt: time.Now().Add(time.Hour)})

	if _, ok := cache.Get("app"); ok {
		t.Error("NopCacheのGet() = hit, want miss")
	}
}

// TestInstallationCacheKey はキャッシュキーの形式を検証する。
func TestInstallationCacheKey(t *testing.T) {
	t.Parallel()

	if got := InstallationCacheKey(42); got != "installation/42" {
		t.Errorf("InstallationCacheKey(42) = %q, want %q", got, "installation/42")
	}
}
