package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spec-kit/identity-service/internal/domain"
)

func TestMemoryUserStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	user := &domain.User{Email: "a@b.co", Name: "Jo", Surname: "Doe", PasswordHash: "hash", Role: domain.RoleUser}
	if err := store.Save(ctx, user); err != nil {
		t.Fatalf("save: %v", err)
	}
	if user.ID == "" || user.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", user)
	}

	byID, err := store.FindByID(ctx, user.ID)
	if err != nil || byID.Email != "a@b.co" {
		t.Fatalf("find by id: %+v, %v", byID, err)
	}

	creds, err := store.FindCredentialProjection(ctx, "a@b.co")
	if err != nil || creds.PasswordHash != "hash" {
		t.Fatalf("projection: %+v, %v", creds, err)
	}

	view, err := store.FindUserView(ctx, "a@b.co")
	if err != nil || view.Name != "Jo" {
		t.Fatalf("view: %+v, %v", view, err)
	}
}

func TestMemoryUserStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()
	user := &domain.User{Email: "a@b.co", Name: "Jo", Role: domain.RoleUser}
	if err := store.Save(ctx, user); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, _ := store.FindByEmail(ctx, "a@b.co")
	found.Name = "Changed"

	again, _ := store.FindByEmail(ctx, "a@b.co")
	if again.Name != "Jo" {
		t.Fatalf("unsaved mutation leaked into store: %q", again.Name)
	}
}

func TestMemoryUserStoreEmailChange(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()
	user := &domain.User{Email: "old@b.co", Role: domain.RoleUser}
	if err := store.Save(ctx, user); err != nil {
		t.Fatalf("save: %v", err)
	}

	user.Email = "new@b.co"
	if err := store.Save(ctx, user); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := store.FindByEmail(ctx, "old@b.co"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old email should be released, got %v", err)
	}
	if _, err := store.FindByEmail(ctx, "new@b.co"); err != nil {
		t.Fatalf("new email lookup: %v", err)
	}
}

func TestMemoryUserStoreUniqueEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Save(ctx, &domain.User{Email: "race@b.co", Role: domain.RoleUser})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrEmailConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 9 {
		t.Fatalf("expected 1 success and 9 conflicts, got %d/%d", ok, conflicts)
	}
}

func TestMemoryUserStoreUpdateUnknownID(t *testing.T) {
	store := NewMemoryUserStore()
	err := store.Save(context.Background(), &domain.User{ID: "missing", Email: "a@b.co"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
