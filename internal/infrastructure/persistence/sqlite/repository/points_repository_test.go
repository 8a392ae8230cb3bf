package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"edupoints/internal/infrastructure/persistence/sqlite/model"
	"edupoints/internal/ports"
)

func setupPointsRepository(t *testing.T) *PointsRepository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "points.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(
		&model.User{},
		&model.ExternalEvent{},
		&model.Grant{},
		&model.LedgerEntry{},
		&model.Submission{},
		&model.Badge{},
		&model.EarnedBadge{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewPointsRepository(db)
}

func testTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func TestCreateExternalEventDeduplicatesByEventAndTag(t *testing.T) {
	repo := setupPointsRepository(t)
	ctx := context.Background()

	event := ports.ExternalEventCreate{
		ExternalEventID: "evt-1",
		TagRaw:          "Completed-Foundations",
		TagNormalized:   "completed-foundations",
		Email:           "pat@example.org",
		EventTime:       testTimestamp(),
		Status:          "received",
		ReceivedAt:      testTimestamp(),
	}

	inserted, err := repo.CreateExternalEvent(ctx, event)
	if err != nil {
		t.Fatalf("CreateExternalEvent(first) error = %v", err)
	}
	if !inserted {
		t.Fatal("first insert reported not inserted")
	}

	inserted, err = repo.CreateExternalEvent(ctx, event)
	if err != nil {
		t.Fatalf("CreateExternalEvent(replay) error = %v", err)
	}
	if inserted {
		t.Fatal("replay insert reported inserted")
	}

	// Same event id under a different tag is a distinct logical event.
	other := event
	other.TagNormalized = "completed-classroom-tech"
	inserted, err = repo.CreateExternalEvent(ctx, other)
	if err != nil {
		t.Fatalf("CreateExternalEvent(other tag) error = %v", err)
	}
	if !inserted {
		t.Fatal("different tag should insert")
	}
}

func TestCreateGrantDeduplicatesByUserAndTag(t *testing.T) {
	repo := setupPointsRepository(t)
	ctx := context.Background()

	grant := ports.GrantCreate{UserID: 1, TagName: "completed-foundations", GrantedAt: testTimestamp()}

	inserted, err := repo.CreateGrant(ctx, grant)
	if err != nil {
		t.Fatalf("CreateGrant(first) error = %v", err)
	}
	if !inserted {
		t.Fatal("first grant reported not inserted")
	}

	inserted, err = repo.CreateGrant(ctx, grant)
	if err != nil {
		t.Fatalf("CreateGrant(replay) error = %v", err)
	}
	if inserted {
		t.Fatal("duplicate grant reported inserted")
	}

	inserted, err = repo.CreateGrant(ctx, ports.GrantCreate{UserID: 2, TagName: "completed-foundations", GrantedAt: testTimestamp()})
	if err != nil {
		t.Fatalf("CreateGrant(other user) error = %v", err)
	}
	if !inserted {
		t.Fatal("other user's grant should insert")
	}
}

func TestCreateLedgerEntryDeduplicatesByExternalID(t *testing.T) {
	repo := setupPointsRepository(t)
	ctx := context.Background()

	entry := ports.LedgerEntryCreate{
		UserID:          1,
		ActivityCode:    "course_completion",
		Source:          "webhook",
		ExternalSource:  "lms",
		ExternalEventID: "lms:evt-1:completed-foundations",
		DeltaPoints:     10,
		EventTime:       testTimestamp(),
		MetadataJSON:    "{}",
		CreatedAt:       testTimestamp(),
	}

	inserted, err := repo.CreateLedgerEntry(ctx, entry)
	if err != nil {
		t.Fatalf("CreateLedgerEntry(first) error = %v", err)
	}
	if !inserted {
		t.Fatal("first entry reported not inserted")
	}

	inserted, err = repo.CreateLedgerEntry(ctx, entry)
	if err != nil {
		t.Fatalf("CreateLedgerEntry(replay) error = %v", err)
	}
	if inserted {
		t.Fatal("duplicate entry reported inserted")
	}

	total, err := repo.SumLedgerPoints(ctx, 1)
	if err != nil {
		t.Fatalf("SumLedgerPoints() error = %v", err)
	}
	if total != 10 {
		t.Fatalf("total = %d, want 10", total)
	}
}

func TestSumLedgerPointsEmptyLedger(t *testing.T) {
	repo := setupPointsRepository(t)

	total, err := repo.SumLedgerPoints(context.Background(), 42)
	if err != nil {
		t.Fatalf("SumLedgerPoints() error = %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d, want 0", total)
	}
}

func TestUserLookupsAndContactBackfill(t *testing.T) {
	repo := setupPointsRepository(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, ports.UserCreate{
		Email:       "Pat@Example.ORG",
		DisplayName: "Pat",
		AccountType: "educator",
		Role:        "member",
		CreatedAt:   testTimestamp(),
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.Email != "pat@example.org" {
		t.Fatalf("email = %q, want lowercased", user.Email)
	}

	if _, err := repo.FindUserByEmail(ctx, "pat@example.org"); err != nil {
		t.Fatalf("FindUserByEmail() error = %v", err)
	}
	if _, err := repo.FindUserByContactID(ctx, "contact-1"); !errors.Is(err, ports.ErrUserNotFound) {
		t.Fatalf("FindUserByContactID(before backfill) error = %v, want ErrUserNotFound", err)
	}

	if err := repo.SetUserContactID(ctx, user.UserID, "contact-1"); err != nil {
		t.Fatalf("SetUserContactID() error = %v", err)
	}

	found, err := repo.FindUserByContactID(ctx, "contact-1")
	if err != nil {
		t.Fatalf("FindUserByContactID(after backfill) error = %v", err)
	}
	if found.UserID != user.UserID {
		t.Fatalf("user id = %d, want %d", found.UserID, user.UserID)
	}

	if _, err := repo.GetUser(ctx, 999); !errors.Is(err, ports.ErrUserNotFound) {
		t.Fatalf("GetUser(missing) error = %v, want ErrUserNotFound", err)
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	repo := setupPointsRepository(t)
	ctx := context.Background()

	created, err := repo.CreateSubmission(ctx, ports.SubmissionCreate{
		UserID:       1,
		ActivityCode: "lesson_plan",
		Visibility:   "private",
		PayloadJSON:  "{}",
		CreatedAt:    testTimestamp(),
	})
	if err != nil {
		t.Fatalf("CreateSubmission() error = %v", err)
	}
	if created.Status != "pending" {
		t.Fatalf("status = %q, want pending", created.Status)
	}

	awarded := 15
	transitioned, err := repo.MarkSubmissionReviewed(ctx, ports.SubmissionReview{
		SubmissionID:  created.SubmissionID,
		Status:        "approved",
		PointsAwarded: &awarded,
		ReviewerID:    9,
		ReviewNote:    "ok",
		ReviewedAt:    testTimestamp(),
	})
	if err != nil {
		t.Fatalf("MarkSubmissionReviewed() error = %v", err)
	}
	if !transitioned {
		t.Fatal("first review reported not transitioned")
	}

	reloaded, err := repo.GetSubmission(ctx, created.SubmissionID)
	if err != nil {
		t.Fatalf("GetSubmission() error = %v", err)
	}
	if reloaded.Status != "approved" {
		t.Fatalf("status = %q, want approved", reloaded.Status)
	}
	if reloaded.PointsAwarded == nil || *reloaded.PointsAwarded != 15 {
		t.Fatalf("points awarded = %v, want 15", reloaded.PointsAwarded)
	}
	if reloaded.ReviewerID == nil || *reloaded.ReviewerID != 9 {
		t.Fatalf("reviewer = %v, want 9", reloaded.ReviewerID)
	}

	count, err := repo.CountApprovedSubmissions(ctx, 1)
	if err != nil {
		t.Fatalf("CountApprovedSubmissions() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("approved count = %d, want 1", count)
	}

	if _, err := repo.GetSubmission(ctx, 999); !errors.Is(err, ports.ErrSubmissionNotFound) {
		t.Fatalf("GetSubmission(missing) error = %v, want ErrSubmissionNotFound", err)
	}
}

func TestMarkSubmissionReviewedGuardsPendingStatus(t *testing.T) {
	repo := setupPointsRepository(t)
	ctx := context.Background()

	created, err := repo.CreateSubmission(ctx, ports.SubmissionCreate{
		UserID:       1,
		ActivityCode: "lesson_plan",
		Visibility:   "private",
		PayloadJSON:  "{}",
		CreatedAt:    testTimestamp(),
	})
	if err != nil {
		t.Fatalf("CreateSubmission() error = %v", err)
	}

	transitioned, err := repo.MarkSubmissionReviewed(ctx, ports.SubmissionReview{
		SubmissionID: created.SubmissionID,
		Status:       "rejected",
		ReviewerID:   9,
		ReviewedAt:   testTimestamp(),
	})
	if err != nil {
		t.Fatalf("MarkSubmissionReviewed(reject) error = %v", err)
	}
	if !transitioned {
		t.Fatal("reject of pending submission reported not transitioned")
	}

	// A second transition attempt loses to the pending guard and must not
	// overwrite the terminal status.
	awarded := 15
	transitioned, err = repo.MarkSubmissionReviewed(ctx, ports.SubmissionReview{
		SubmissionID:  created.SubmissionID,
		Status:        "approved",
		PointsAwarded: &awarded,
		ReviewerID:    10,
		ReviewedAt:    testTimestamp(),
	})
	if err != nil {
		t.Fatalf("MarkSubmissionReviewed(approve after reject) error = %v", err)
	}
	if transitioned {
		t.Fatal("approve of rejected submission reported transitioned")
	}

	reloaded, err := repo.GetSubmission(ctx, created.SubmissionID)
	if err != nil {
		t.Fatalf("GetSubmission() error = %v", err)
	}
	if reloaded.Status != "rejected" {
		t.Fatalf("status = %q, want rejected", reloaded.Status)
	}
	if reloaded.PointsAwarded != nil {
		t.Fatalf("points awarded = %v, want nil", reloaded.PointsAwarded)
	}
	if reloaded.ReviewerID == nil || *reloaded.ReviewerID != 9 {
		t.Fatalf("reviewer = %v, want original 9", reloaded.ReviewerID)
	}
}

func TestBadgeUpsertAndEarnedDedup(t *testing.T) {
	repo := setupPointsRepository(t)
	ctx := context.Background()

	badge := ports.Badge{BadgeCode: "bronze_educator", Name: "Bronze", MinTotalPoints: 50}
	if err := repo.UpsertBadge(ctx, badge); err != nil {
		t.Fatalf("UpsertBadge(first) error = %v", err)
	}

	badge.MinTotalPoints = 60
	if err := repo.UpsertBadge(ctx, badge); err != nil {
		t.Fatalf("UpsertBadge(update) error = %v", err)
	}

	badges, err := repo.ListBadges(ctx)
	if err != nil {
		t.Fatalf("ListBadges() error = %v", err)
	}
	if len(badges) != 1 {
		t.Fatalf("badges = %d, want 1", len(badges))
	}
	if badges[0].MinTotalPoints != 60 {
		t.Fatalf("min total = %d, want updated 60", badges[0].MinTotalPoints)
	}

	earned := ports.EarnedBadge{UserID: 1, BadgeCode: "bronze_educator", EarnedAt: testTimestamp()}
	inserted, err := repo.CreateEarnedBadge(ctx, earned)
	if err != nil {
		t.Fatalf("CreateEarnedBadge(first) error = %v", err)
	}
	if !inserted {
		t.Fatal("first earned badge reported not inserted")
	}
	inserted, err = repo.CreateEarnedBadge(ctx, earned)
	if err != nil {
		t.Fatalf("CreateEarnedBadge(replay) error = %v", err)
	}
	if inserted {
		t.Fatal("duplicate earned badge reported inserted")
	}
}
