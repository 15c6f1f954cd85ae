//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"messaging-bridge/internal/domain"
	"messaging-bridge/internal/domain/model"
)

func TestUserRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewPostgresUserRepo(NewGateway(testPool), model.PlatformTelegram)
	ctx := context.Background()

	t.Run("should insert then update without duplicating", func(t *testing.T) {
		cleanup(t)

		u, _ := model.NewPlatformUser("42", "alice", map[string]string{"lang": "en"})
		first, err := repo.Upsert(ctx, u)
		if err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}

		u2, _ := model.NewPlatformUser("42", "alice2", map[string]string{"tz": "UTC"})
		second, err := repo.Upsert(ctx, u2)
		if err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}
		if second.DisplayName != "alice2" {
			t.Errorf("expected display name to be refreshed, got %q", second.DisplayName)
		}
		if second.Meta["lang"] != "en" || second.Meta["tz"] != "UTC" {
			t.Errorf("expected merged meta, got %v", second.Meta)
		}
		if !second.CreatedAt.Equal(first.CreatedAt) {
			t.Error("created_at must not change on update")
		}
		if second.UpdatedAt.Before(first.UpdatedAt) {
			t.Error("updated_at must not move backwards")
		}

		var n int
		if err := testPool.QueryRow(ctx, `SELECT COUNT(*) FROM telegram_users WHERE user_id = '42'`).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("expected exactly one row, got %d", n)
		}
	})

	t.Run("placeholder name does not clobber a known one", func(t *testing.T) {
		cleanup(t)

		known, _ := model.NewPlatformUser("7", "bob", nil)
		if _, err := repo.Upsert(ctx, known); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"", model.DemoDisplayName} {
			anon, _ := model.NewPlatformUser("7", name, nil)
			got, err := repo.Upsert(ctx, anon)
			if err != nil {
				t.Fatal(err)
			}
			if got.DisplayName != "bob" {
				t.Errorf("upsert with %q replaced the known name, got %q", name, got.DisplayName)
			}
		}
	})

	t.Run("concurrent upserts converge on one row", func(t *testing.T) {
		cleanup(t)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u, _ := model.NewPlatformUser("race", "racer", nil)
				if _, err := repo.Upsert(ctx, u); err != nil {
					t.Errorf("concurrent upsert: %v", err)
				}
			}()
		}
		wg.Wait()

		var n int
		if err := testPool.QueryRow(ctx, `SELECT COUNT(*) FROM telegram_users WHERE user_id = 'race'`).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("expected exactly one row, got %d", n)
		}
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
