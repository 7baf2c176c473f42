package jsonfile_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/devpablofiz/Hotelier/internal/domain"
	"github.com/devpablofiz/Hotelier/internal/storage/jsonfile"
)

func TestCatalog_RoundTripsReviewHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotels.json")
	cat := jsonfile.NewCatalog(path)
	ctx := context.Background()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	h := &domain.Hotel{ID: 1, Name: "Hotel Arno", City: "Pisa", Services: []string{"wifi"}}
	h.AddReview(5, 4, 3, 2, 1, now)
	h.AddReview(3, 3, 3, 3, 3, now.AddDate(0, -2, 0))

	if err := cat.Save(ctx, []*domain.Hotel{h}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := cat.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d hotels", len(loaded))
	}
	got := loaded[0]
	if got.ReviewCount != 2 || len(got.Reviews) != 2 {
		t.Fatalf("review history lost: count=%d events=%d", got.ReviewCount, len(got.Reviews))
	}
	// scoring must work identically from the reloaded history
	if a, b := h.Score(now), got.Score(now); a != b {
		t.Fatalf("score changed across round trip: %v vs %v", a, b)
	}
}

func TestCatalog_LoadMissingFileFails(t *testing.T) {
	cat := jsonfile.NewCatalog(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := cat.Load(context.Background()); err == nil {
		t.Fatalf("expected error for missing catalog")
	}
}

func TestUserStore_RegisterValidateCounters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	ctx := context.Background()

	s, err := jsonfile.NewUserStore(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if v, _ := s.Register(ctx, "alice", "secret"); v != domain.RegisterOK {
		t.Fatalf("register = %v", v)
	}
	if v, _ := s.Register(ctx, "alice", "other"); v != domain.RegisterAlreadyExists {
		t.Fatalf("duplicate register = %v", v)
	}

	if v, _ := s.Validate(ctx, "alice", "secret"); v != domain.LoginOK {
		t.Fatalf("validate = %v", v)
	}
	if v, _ := s.Validate(ctx, "alice", "wrong"); v != domain.LoginBadPassword {
		t.Fatalf("bad password = %v", v)
	}
	if v, _ := s.Validate(ctx, "bob", "x"); v != domain.LoginUnknownUser {
		t.Fatalf("unknown user = %v", v)
	}

	for i := 0; i < 3; i++ {
		if err := s.IncrementReviewCount(ctx, "alice"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if n, _ := s.ReviewCount(ctx, "alice"); n != 3 {
		t.Fatalf("count = %d", n)
	}

	// persistence round trip
	if err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	reloaded, err := jsonfile.NewUserStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if v, _ := reloaded.Validate(ctx, "alice", "secret"); v != domain.LoginOK {
		t.Fatalf("reloaded validate = %v", v)
	}
	if n, _ := reloaded.ReviewCount(ctx, "alice"); n != 3 {
		t.Fatalf("reloaded count = %d", n)
	}
}
