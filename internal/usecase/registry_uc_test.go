package usecase_test

import (
	"context"
	"errors"
	"testing"

	"messaging-bridge/internal/domain"
	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/usecase"
)

func TestUserRegistry(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("repeated upserts keep one row and refresh the name", func(t *testing.T) {
		repo := NewMemUserRepo()
		reg := usecase.NewUserRegistry(model.PlatformTelegram, repo, testLogger)

		first := reg.Upsert(ctx, "42", "alice", map[string]string{"lang": "en"})
		second := reg.Upsert(ctx, "42", "alice2", map[string]string{"tz": "UTC"})

		if !first.Ok() || !second.Ok() {
			t.Fatalf("unexpected errors: %v / %v", first.Err, second.Err)
		}
		if repo.Len() != 1 {
			t.Fatalf("expected one row, got %d", repo.Len())
		}
		u, _ := second.Unwrap()
		if u.DisplayName != "alice2" || u.Meta["lang"] != "en" || u.Meta["tz"] != "UTC" {
			t.Errorf("unexpected merged user %+v", u)
		}
		if !u.IsActive {
			t.Error("upserted user must be active")
		}
	})

	t.Run("unknown name is stored as placeholder and never replaces a known one", func(t *testing.T) {
		repo := NewMemUserRepo()
		reg := usecase.NewUserRegistry(model.PlatformDiscord, repo, testLogger)

		anon := reg.Upsert(ctx, "7", "", nil)
		if anon.Value.DisplayName != model.UnknownDisplayName {
			t.Errorf("expected placeholder name, got %q", anon.Value.DisplayName)
		}
		reg.Upsert(ctx, "7", "bob", nil)
		again := reg.Upsert(ctx, "7", "", nil)
		if again.Value.DisplayName != "bob" {
			t.Errorf("placeholder overwrote known name: %q", again.Value.DisplayName)
		}
	})

	t.Run("demo placeholder name never replaces a known one", func(t *testing.T) {
		repo := NewMemUserRepo()
		reg := usecase.NewUserRegistry(model.PlatformDiscord, repo, testLogger)

		reg.Upsert(ctx, "8", "erin", nil)
		again := reg.Upsert(ctx, "8", model.DemoDisplayName, nil)
		if again.Value.DisplayName != "erin" {
			t.Errorf("demo placeholder overwrote known name: %q", again.Value.DisplayName)
		}
	})

	t.Run("storage failure is returned in the result", func(t *testing.T) {
		repo := NewMemUserRepo()
		repo.FailErr = domain.ErrPersistenceUnavailable
		reg := usecase.NewUserRegistry(model.PlatformTelegram, repo, testLogger)

		res := reg.Upsert(ctx, "42", "alice", nil)
		if res.Ok() || !errors.Is(res.Err, domain.ErrPersistenceUnavailable) {
			t.Fatalf("expected a failed result, got %+v", res)
		}
	})

	t.Run("blank id is rejected before storage", func(t *testing.T) {
		repo := NewMemUserRepo()
		reg := usecase.NewUserRegistry(model.PlatformTelegram, repo, testLogger)

		if res := reg.Upsert(ctx, " ", "x", nil); res.Ok() {
			t.Fatal("expected failure for blank id")
		}
		if repo.Calls() != 0 {
			t.Error("repository must not be called")
		}
	})

	t.Run("get returns not found for unknown users", func(t *testing.T) {
		reg := usecase.NewUserRegistry(model.PlatformTelegram, NewMemUserRepo(), testLogger)
		if _, err := reg.Get(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
