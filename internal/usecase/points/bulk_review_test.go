package points

import (
	"context"
	"errors"
	"strings"
	"testing"

	domainpoints "edupoints/internal/domain/points"
)

func TestBulkReviewPartialFailure(t *testing.T) {
	svc, _, _ := setupServiceWithRepo(t)
	ctx := context.Background()

	user := createTestUser(t, svc, testUserSpec{})
	reviewer := createTestReviewer(t, svc)

	ids := make([]uint64, 0, 5)
	for i := 0; i < 4; i++ {
		submission := createTestSubmission(t, svc, user.UserID, domainpoints.ActivityLessonPlan, 0, 0)
		ids = append(ids, submission.SubmissionID)
	}
	const missingID = uint64(999999999)
	ids = append(ids, missingID)

	out, err := svc.BulkReview(ctx, BulkReviewInput{
		SubmissionIDs: ids,
		ReviewerID:    reviewer.UserID,
		Action:        "approve",
	})
	if err != nil {
		t.Fatalf("BulkReview() error = %v", err)
	}
	if out.Processed != 4 {
		t.Fatalf("processed = %d, want 4", out.Processed)
	}
	if out.Failed != 1 {
		t.Fatalf("failed = %d, want 1", out.Failed)
	}
	if len(out.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(out.Errors))
	}
	if out.Errors[0].SubmissionID != missingID {
		t.Fatalf("failed id = %d, want %d", out.Errors[0].SubmissionID, missingID)
	}
	if !strings.Contains(out.Errors[0].Err, "not found") {
		t.Fatalf("failure message = %q, want contains not found", out.Errors[0].Err)
	}

	// The processed items really were approved.
	for _, id := range ids[:4] {
		submission, err := svc.GetSubmission(ctx, id)
		if err != nil {
			t.Fatalf("GetSubmission(%d) error = %v", id, err)
		}
		if submission.Status != domainpoints.SubmissionApproved {
			t.Fatalf("submission %d status = %q, want approved", id, submission.Status)
		}
	}
}

func TestBulkReviewRequiresReviewerRole(t *testing.T) {
	svc, _, _ := setupServiceWithRepo(t)
	ctx := context.Background()

	user := createTestUser(t, svc, testUserSpec{})
	member := createTestUser(t, svc, testUserSpec{})
	submission := createTestSubmission(t, svc, user.UserID, domainpoints.ActivityLessonPlan, 0, 0)

	_, err := svc.BulkReview(ctx, BulkReviewInput{
		SubmissionIDs: []uint64{submission.SubmissionID},
		ReviewerID:    member.UserID,
		Action:        "approve",
	})
	if !errors.Is(err, domainpoints.ErrReviewerForbidden) {
		t.Fatalf("BulkReview() error = %v, want ErrReviewerForbidden", err)
	}

	// Nothing was touched.
	reloaded, err := svc.GetSubmission(ctx, submission.SubmissionID)
	if err != nil {
		t.Fatalf("GetSubmission() error = %v", err)
	}
	if reloaded.Status != domainpoints.SubmissionPending {
		t.Fatalf("status = %q, want pending", reloaded.Status)
	}
}

func TestBulkReviewRequiresIDs(t *testing.T) {
	svc, _ := setupService(t)
	reviewer := createTestReviewer(t, svc)

	if _, err := svc.BulkReview(context.Background(), BulkReviewInput{
		ReviewerID: reviewer.UserID,
		Action:     "approve",
	}); err == nil {
		t.Fatal("BulkReview() with no ids should fail")
	}
}
