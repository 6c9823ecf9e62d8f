package protector

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/branch-protector/pkg/githubauth"
)

// newTestAuthContext はテスト用の認証済みコンテキストを生成する。
func newTestAuthContext(action string) *AuthContext {
	return &AuthContext{
		Event: &WebhookEvent{
			Action:       action,
			Repository:   Repository{FullName: "octo/hello-world", DefaultBranch: "main"},
			Sender:       Sender{Login: "octocat"},
			Installation: Installation{ID: 99},
		},
		Credential: &githubauth.InstallationCredential{Token: "ghs_test", InstallationID: 99},
	}
}

// TestDispatcherDispatch はDispatcher.Dispatchを検証する。
func TestDispatcherDispatch(t *testing.T) {
	t.Parallel()

	t.Run("登録済みのイベントとアクションでハンドラが実行されること", func(t *testing.T) {
		t.Parallel()

		d := NewDispatcher()
		invoked := false
		d.Register("repository", "created", func(_ context.Context, auth *AuthContext) error {
			invoked = true
			if auth.Event.Repository.FullName != "octo/hello-world" {
				t.Errorf("FullName = %q, want %q", auth.Event.Repository.FullName, "octo/hello-world")
			}
			return nil
		})

		handled, err := d.Dispatch(context.Background(), "repository", newTestAuthContext("created"))
		if err != nil {
			t.Fatalf("Dispatch()でエラーが発生: %v", err)
		}
		if !handled {
			t.Error("handled = false, want true")
		}
		if !invoked {
			t.Error("ハンドラが実行されていない")
		}
	})

	t.Run("アクションが一致しない場合はハンドラが実行されないこと", func(t *testing.T) {
		t.Parallel()

		d := NewDispatcher()
		d.Register("repository", "created", func(_ context.Context, _ *AuthContext) error {
			t.Error("ハンドラが実行された")
			return nil
		})

		handled, err := d.Dispatch(context.Background(), "repository", newTestAuthContext("deleted"))
		if err != nil {
			t.Fatalf("Dispatch()でエラーが発生: %v", err)
		}
		if handled {
			t.Error("handled = true, want false")
		}
	})

	t.Run("イベント種別が一致しない場合はハンドラが実行されないこと", func(t *testing.T) {
		t.Parallel()

		d := NewDispatcher()
		d.Register("repository", "created", func(_ context.Context, _ *AuthContext) error {
			t.Error("ハンドラが実行された")
			return nil
		})

		handled, err := d.Dispatch(context.Background(), "issues", newTestAuthContext("created"))
		if err != nil {
			t.Fatalf("Dispatch()でエラーが発生: %v", err)
		}
		if handled {
			t.Error("handled = true, want false")
		}
	})

	t.Run("ハンドラのエラーがそのまま返ること", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("ハンドラ内のエラー")
		d := NewDispatcher()
		d.Register("repository", "created", func(_ context.Context, _ *AuthContext) error {
			return wantErr
		})

		handled, err := d.Dispatch(context.Background(), "repository", newTestAuthContext("created"))
		if !handled {
			t.Error("handled = false, want true")
		}
		if !errors.Is(err, wantErr) {
			t.Errorf("err = %v, want %v", err, wantErr)
		}
	})

	t.Run("キャンセル済みコンテキストではハンドラを実行しないこと", func(t *testing.T) {
		t.Parallel()

		d := NewDispatcher()
		d.Register("repository", "created", func(_ context.Context, _ *AuthContext) error {
			t.Error("キャンセル済みコンテキストでハンドラが実行された")
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		handled, err := d.Dispatch(ctx, "repository", newTestAuthContext("created"))
		if !handled {
			t.Error("handled = false, want true")
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}
