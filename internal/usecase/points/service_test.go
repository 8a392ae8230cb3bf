package points

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"edupoints/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "edupoints/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "edupoints/internal/infrastructure/persistence/sqlite/uow"
	"edupoints/internal/ports"
)

// The in-memory database is shared process-wide, so every test derives its
// identifiers from this counter.
var testSeq atomic.Uint64

func nextSeq() uint64 {
	return testSeq.Add(1)
}

var testNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

type testCache struct {
	data map[string]string
}

func newTestCache() *testCache {
	return &testCache{
		data: make(map[string]string),
	}
}

func (c *testCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *testCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func setupServiceWithRepo(t *testing.T) (*Service, *testCache, ports.PointsRepository) {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.ExternalEvent{},
		&model.Grant{},
		&model.LedgerEntry{},
		&model.Submission{},
		&model.Badge{},
		&model.EarnedBadge{},
		&model.PointsKV{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	cache := newTestCache()
	repo := sqliterepo.NewPointsRepository(db)
	uow := sqliteuow.NewUnitOfWork(db)

	svc := NewService(repo, uow, cache, Config{
		FreshnessWindow: 5 * time.Minute,
	})
	svc.now = func() time.Time { return testNow }

	seedTestBadges(t, repo)
	return svc, cache, repo
}

func setupService(t *testing.T) (*Service, *testCache) {
	t.Helper()
	svc, cache, _ := setupServiceWithRepo(t)
	return svc, cache
}

func seedTestBadges(t *testing.T, repo ports.PointsRepository) {
	t.Helper()

	badges := []ports.Badge{
		{BadgeCode: "first_points", Name: "First Points", MinTotalPoints: 1},
		{BadgeCode: "bronze_educator", Name: "Bronze Educator", MinTotalPoints: 50},
		{BadgeCode: "active_contributor", Name: "Active Contributor", MinTotalPoints: 1, MinApprovedSubmissions: 3},
	}
	for _, badge := range badges {
		if err := repo.UpsertBadge(context.Background(), badge); err != nil {
			t.Fatalf("seed badge %s: %v", badge.BadgeCode, err)
		}
	}
}

type testUserSpec struct {
	contactID   string
	accountType string
	role        string
}

func createTestUser(t *testing.T, svc *Service, spec testUserSpec) ports.User {
	t.Helper()

	seq := nextSeq()
	if spec.accountType == "" {
		spec.accountType = "educator"
	}
	if spec.role == "" {
		spec.role = "member"
	}

	user, err := svc.RegisterUser(context.Background(), RegisterUserInput{
		Email:             fmt.Sprintf("user-%d@example.org", seq),
		DisplayName:       fmt.Sprintf("User %d", seq),
		ExternalContactID: spec.contactID,
		AccountType:       spec.accountType,
		Role:              spec.role,
	})
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	return user
}

func createTestReviewer(t *testing.T, svc *Service) ports.User {
	t.Helper()
	return createTestUser(t, svc, testUserSpec{role: "reviewer"})
}

// flatPayload builds the flat event shape.
func flatPayload(eventID string, tag string, contactID string, email string, createdAt string) []byte {
	return []byte(fmt.Sprintf(`{
  "event_id": %q,
  "created_at": %q,
  "contact": {"id": %q, "email": %q},
  "tag": {"name": %q}
}`, eventID, createdAt, contactID, email, tag))
}

func countLedgerEntries(t *testing.T, repo ports.PointsRepository, userID uint64) int {
	t.Helper()

	entries, err := repo.ListLedgerEntries(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("ListLedgerEntries() error = %v", err)
	}
	return len(entries)
}
