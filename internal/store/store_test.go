package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wordreminder/internal/database"
	"wordreminder/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"), "")
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func createUser(t *testing.T, s *Store, email string) models.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func createWords(t *testing.T, s *Store, userID int, words ...string) []models.UserWord {
	t.Helper()
	out := make([]models.UserWord, 0, len(words))
	for _, w := range words {
		uw, err := s.UserWords.Create(context.Background(), userID, w)
		if err != nil {
			t.Fatalf("create word %q: %v", w, err)
		}
		out = append(out, uw)
	}
	return out
}

func TestTokenRegistryCreateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com")

	first, err := s.Tokens.Create(ctx, u.ID, "T1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := s.Tokens.Create(ctx, u.ID, "T1")
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same row, got ids %d and %d", first.ID, second.ID)
	}
	if _, err := s.Tokens.Create(ctx, u.ID, "T2"); err != nil {
		t.Fatalf("Create T2: %v", err)
	}

	tokens, err := s.Tokens.GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(tokens) != 2 || tokens[0].Token != "T1" || tokens[1].Token != "T2" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestTokenRegistryEmptyUser(t *testing.T) {
	s := newTestStore(t)
	tokens, err := s.Tokens.GetByUserID(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if tokens == nil || len(tokens) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", tokens)
	}
}

func TestTokenRegistrySameTokenDifferentUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createUser(t, s, "a@example.com")
	b := createUser(t, s, "b@example.com")
	if _, err := s.Tokens.Create(ctx, a.ID, "shared"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Tokens.Create(ctx, b.ID, "shared"); err != nil {
		t.Fatal(err)
	}
	if err := s.Tokens.Delete(ctx, a.ID, "shared"); err != nil {
		t.Fatal(err)
	}
	left, _ := s.Tokens.GetByUserID(ctx, b.ID)
	if len(left) != 1 {
		t.Fatalf("deleting user a's token affected user b: %+v", left)
	}
}

func TestUsersCreateAndLastSeen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com")
	if _, err := s.Users.Create(ctx, "a@example.com", "x"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if u.LastSeenAt != nil {
		t.Fatalf("new user should not have last_seen_at")
	}
	seen := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	if err := s.Users.TouchLastSeen(ctx, u.ID, seen); err != nil {
		t.Fatal(err)
	}
	got, err := s.Users.ByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastSeenAt == nil || !got.LastSeenAt.Equal(seen) {
		t.Fatalf("last_seen_at = %v, want %v", got.LastSeenAt, seen)
	}
	if _, err := s.Users.ByID(ctx, 12345); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com")
	now := time.Now()

	if err := s.RefreshTokens.Store(ctx, u.ID, "tok", now.Add(24*time.Hour), 1); err != nil {
		t.Fatal(err)
	}
	uid, days, err := s.RefreshTokens.Validate(ctx, "tok", now)
	if err != nil || uid != u.ID || days != 1 {
		t.Fatalf("Validate = %d, %d, %v", uid, days, err)
	}
	if _, _, err := s.RefreshTokens.Validate(ctx, "tok", now.Add(48*time.Hour)); !errors.Is(err, ErrRefreshExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if err := s.RefreshTokens.Revoke(ctx, "tok"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.RefreshTokens.Validate(ctx, "tok", now); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("expected revoked, got %v", err)
	}
	if _, _, err := s.RefreshTokens.Validate(ctx, "missing", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserWords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com")
	other := createUser(t, s, "b@example.com")
	words := createWords(t, s, u.ID, "Cat", "dog", "owl")
	foreign := createWords(t, s, other.ID, "cat")

	if words[0].Word != "cat" {
		t.Fatalf("word should be normalized, got %q", words[0].Word)
	}
	if foreign[0].WordID != words[0].WordID {
		t.Fatalf("dictionary row should be shared between users")
	}
	if _, err := s.UserWords.Create(ctx, u.ID, " CAT "); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	learned, err := s.UserWords.SetLearned(ctx, u.ID, words[1].ID, true)
	if err != nil || !learned.Learned {
		t.Fatalf("SetLearned = %+v, %v", learned, err)
	}
	if _, err := s.UserWords.SetLearned(ctx, u.ID, foreign[0].ID, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign word, got %v", err)
	}

	got, err := s.UserWords.ByIDs(ctx, u.ID, []int{words[2].ID, foreign[0].ID, words[0].ID, words[2].ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != words[2].ID || got[1].ID != words[0].ID {
		t.Fatalf("ByIDs = %+v", got)
	}

	list, err := s.UserWords.List(ctx, u.ID)
	if err != nil || len(list) != 3 {
		t.Fatalf("List = %d words, %v", len(list), err)
	}
	if err := s.UserWords.Delete(ctx, u.ID, words[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := s.UserWords.Delete(ctx, u.ID, words[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestWordRemindersRequireWords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com")
	other := createUser(t, s, "b@example.com")
	foreign := createWords(t, s, other.ID, "cat")

	wr := models.WordReminder{
		UserID:   u.ID,
		Reminder: "@every 1h",
		Finish:   time.Now().Add(24 * time.Hour),
		IsActive: true,
		StartsAt: time.Now(),
	}
	if _, err := s.WordReminders.Create(ctx, wr, nil); !errors.Is(err, ErrNoWords) {
		t.Fatalf("expected ErrNoWords with no ids, got %v", err)
	}
	if _, err := s.WordReminders.Create(ctx, wr, []int{foreign[0].ID}); !errors.Is(err, ErrNoWords) {
		t.Fatalf("expected ErrNoWords with foreign ids, got %v", err)
	}
}

func TestWordRemindersLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com")
	words := createWords(t, s, u.ID, "cat", "dog", "owl")

	finish := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	starts := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	created, err := s.WordReminders.Create(ctx, models.WordReminder{
		UserID:            u.ID,
		Reminder:          "0 9 * * *",
		Finish:            finish,
		IsActive:          true,
		HasReminderOnload: true,
		StartsAt:          starts,
	}, []int{words[2].ID, words[0].ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created.Finish.Equal(finish) || !created.StartsAt.Equal(starts) {
		t.Fatalf("times not round-tripped: finish=%v starts=%v", created.Finish, created.StartsAt)
	}
	if len(created.UserWords) != 2 || created.UserWords[0].Word != "owl" || created.UserWords[1].Word != "cat" {
		t.Fatalf("words = %+v", created.UserWords)
	}

	fired := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	if err := s.WordReminders.MarkFired(ctx, map[int]time.Time{created.ID: fired}); err != nil {
		t.Fatal(err)
	}
	active, err := s.WordReminders.ListActive(ctx)
	if err != nil || len(active) != 1 {
		t.Fatalf("ListActive = %d, %v", len(active), err)
	}
	if active[0].LastFiredAt == nil || !active[0].LastFiredAt.Equal(fired) {
		t.Fatalf("last_fired_at = %v", active[0].LastFiredAt)
	}

	created.IsActive = false
	updated, err := s.WordReminders.Update(ctx, created, []int{words[1].ID})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.IsActive || len(updated.UserWords) != 1 || updated.UserWords[0].Word != "dog" {
		t.Fatalf("updated = %+v", updated)
	}
	if _, err := s.WordReminders.Update(ctx, created, []int{}); !errors.Is(err, ErrNoWords) {
		t.Fatalf("expected ErrNoWords for empty replacement, got %v", err)
	}
	active, _ = s.WordReminders.ListActive(ctx)
	if len(active) != 0 {
		t.Fatalf("inactive reminder listed as active")
	}

	n, err := s.WordReminders.DeleteAll(ctx, u.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteAll = %d, %v", n, err)
	}
	if _, err := s.WordReminders.Get(ctx, u.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAutoReminders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com")

	next := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	a, err := s.AutoReminders.Create(ctx, models.AutoWordReminder{
		UserID:     u.ID,
		Reminder:   "@every 2h",
		DurationMs: 7 * 24 * 60 * 60 * 1000,
		WordCount:  5,
		IsActive:   true,
		SortMode:   models.SortRandom,
		NextRunAt:  &next,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.SortMode != models.SortRandom || a.NextRunAt == nil || !a.NextRunAt.Equal(next) {
		t.Fatalf("auto = %+v", a)
	}
	if _, err := s.AutoReminders.Create(ctx, models.AutoWordReminder{UserID: u.ID, Reminder: "@every 1h", SortMode: models.SortNewest}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for second generator, got %v", err)
	}

	later := next.Add(time.Hour)
	if err := s.AutoReminders.SetNextRun(ctx, a.ID, later); err != nil {
		t.Fatal(err)
	}
	got, err := s.AutoReminders.GetByUser(ctx, u.ID)
	if err != nil || got.NextRunAt == nil || !got.NextRunAt.Equal(later) {
		t.Fatalf("GetByUser = %+v, %v", got, err)
	}

	got.IsActive = false
	if _, err := s.AutoReminders.Update(ctx, got); err != nil {
		t.Fatal(err)
	}
	list, _ := s.AutoReminders.ListActive(ctx)
	if len(list) != 0 {
		t.Fatalf("inactive generator listed: %+v", list)
	}
	if err := s.AutoReminders.Delete(ctx, u.ID, a.ID); err != nil {
		t.Fatal(err)
	}
}
