package points

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domainpoints "edupoints/internal/domain/points"
	"edupoints/internal/errs"
	"edupoints/internal/ports"
)

type submissionPayload struct {
	PeersTrained    int `json:"peers_trained"`
	StudentsTrained int `json:"students_trained"`
}

// ReviewSubmission executes one reviewer decision. Approval computes base
// points (the peer-training formula for that activity, the configured default
// otherwise), applies the bounded adjustment, and writes the ledger entry and
// status transition in one transaction. The ledger's unique submission id
// makes a raced duplicate approval a benign no-op: the loser observes the
// reviewed state instead of an error. The status UPDATE carries its own
// pending guard, so a decision racing a conflicting decision rolls back and
// surfaces ErrAlreadyReviewed.
func (s *Service) ReviewSubmission(ctx context.Context, input ReviewInput) (ReviewResult, error) {
	if ctx == nil {
		return ReviewResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ReviewResult{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return ReviewResult{}, errors.New("points repository is required")
	}
	if s.uow == nil {
		return ReviewResult{}, errors.New("points unit of work is required")
	}

	action := strings.ToLower(strings.TrimSpace(input.Action))
	if action != domainpoints.ActionApprove && action != domainpoints.ActionReject {
		return ReviewResult{}, domainpoints.ErrInvalidReviewAction
	}

	reviewer, err := s.repo.GetUser(ctx, input.ReviewerID)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return ReviewResult{}, domainpoints.ErrReviewerForbidden
		}
		return ReviewResult{}, err
	}
	if !domainpoints.ValidReviewerRole(reviewer.Role) {
		return ReviewResult{}, domainpoints.ErrReviewerForbidden
	}

	submission, err := s.repo.GetSubmission(ctx, input.SubmissionID)
	if err != nil {
		return ReviewResult{}, err
	}
	if submission.Status != domainpoints.SubmissionPending {
		return ReviewResult{}, domainpoints.ErrAlreadyReviewed
	}

	nowStr := formatTime(s.now())

	if action == domainpoints.ActionReject {
		if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
			transitioned, txErr := s.repo.MarkSubmissionReviewed(txCtx, ports.SubmissionReview{
				SubmissionID: submission.SubmissionID,
				Status:       domainpoints.SubmissionRejected,
				ReviewerID:   reviewer.UserID,
				ReviewNote:   input.Note,
				ReviewedAt:   nowStr,
			})
			if txErr != nil {
				return txErr
			}
			if !transitioned {
				return domainpoints.ErrAlreadyReviewed
			}
			return nil
		}); err != nil {
			return ReviewResult{}, err
		}
		return ReviewResult{
			SubmissionID: submission.SubmissionID,
			Status:       domainpoints.SubmissionRejected,
			Message:      "submission rejected",
		}, nil
	}

	base, err := s.basePoints(submission)
	if err != nil {
		return ReviewResult{}, err
	}
	if !domainpoints.ValidAdjustment(base, input.Adjustment) {
		return ReviewResult{}, domainpoints.ErrAdjustmentOutOfBounds
	}
	final := base + input.Adjustment

	alreadyReviewed := false
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		inserted, entryErr := s.repo.CreateLedgerEntry(txCtx, s.reviewLedgerCreate(submission, base, input.Adjustment, final, nowStr))
		if entryErr != nil {
			return entryErr
		}
		if !inserted {
			// A concurrent review of the same submission won the race.
			alreadyReviewed = true
			return nil
		}

		transitioned, txErr := s.repo.MarkSubmissionReviewed(txCtx, ports.SubmissionReview{
			SubmissionID:  submission.SubmissionID,
			Status:        domainpoints.SubmissionApproved,
			PointsAwarded: &final,
			ReviewerID:    reviewer.UserID,
			ReviewNote:    input.Note,
			ReviewedAt:    nowStr,
		})
		if txErr != nil {
			return txErr
		}
		if !transitioned {
			// A rejection landed between the pending read and this transaction.
			// Erroring out rolls the ledger insert back with it.
			return domainpoints.ErrAlreadyReviewed
		}
		return s.recomputeBadgesTx(txCtx, submission.UserID, nowStr)
	}); err != nil {
		return ReviewResult{}, err
	}

	if alreadyReviewed {
		current, err := s.repo.GetSubmission(ctx, submission.SubmissionID)
		if err != nil {
			return ReviewResult{}, err
		}
		return ReviewResult{
			SubmissionID:    current.SubmissionID,
			Status:          current.Status,
			PointsAwarded:   current.PointsAwarded,
			AlreadyReviewed: true,
			Message:         "submission already reviewed",
		}, nil
	}

	s.invalidateScoreBestEffort(ctx, submission.UserID)
	return ReviewResult{
		SubmissionID:  submission.SubmissionID,
		Status:        domainpoints.SubmissionApproved,
		PointsAwarded: &final,
		Message:       fmt.Sprintf("submission approved, %d points awarded", final),
	}, nil
}

func (s *Service) basePoints(submission ports.Submission) (int, error) {
	var counters domainpoints.TrainingCounters
	if submission.ActivityCode == domainpoints.ActivityPeerTraining {
		var payload submissionPayload
		if err := json.Unmarshal([]byte(submission.PayloadJSON), &payload); err != nil {
			return 0, errs.Wrap(domainpoints.ErrPayloadInvalid, "parse submission payload")
		}
		counters = domainpoints.TrainingCounters{
			PeersTrained:    payload.PeersTrained,
			StudentsTrained: payload.StudentsTrained,
		}
	}
	return domainpoints.BasePoints(submission.ActivityCode, counters)
}

func (s *Service) reviewLedgerCreate(submission ports.Submission, base int, adjustment int, final int, nowStr string) ports.LedgerEntryCreate {
	metadata, _ := json.Marshal(map[string]int{
		"base_points": base,
		"adjustment":  adjustment,
	})

	return ports.LedgerEntryCreate{
		UserID:          submission.UserID,
		ActivityCode:    submission.ActivityCode,
		Source:          domainpoints.SourceForm,
		ExternalEventID: submissionLedgerID(submission.SubmissionID),
		DeltaPoints:     final,
		EventTime:       nowStr,
		MetadataJSON:    string(metadata),
		CreatedAt:       nowStr,
	}
}
