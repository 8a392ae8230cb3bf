package points

import (
	"context"
	"errors"

	domainpoints "edupoints/internal/domain/points"
	"edupoints/internal/errs"
)

// BulkReview applies one reviewer action uniformly across a batch. Items are
// processed independently: a failing item is captured per id and never rolls
// back or halts the others, since each item keeps its own transaction.
func (s *Service) BulkReview(ctx context.Context, input BulkReviewInput) (BulkReviewResult, error) {
	if ctx == nil {
		return BulkReviewResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return BulkReviewResult{}, errs.Wrap(err, "check context")
	}
	if len(input.SubmissionIDs) == 0 {
		return BulkReviewResult{}, errors.New("at least one submission id is required")
	}

	// Role failures are request-level, not per-item.
	reviewer, err := s.repo.GetUser(ctx, input.ReviewerID)
	if err != nil {
		return BulkReviewResult{}, domainpoints.ErrReviewerForbidden
	}
	if !domainpoints.ValidReviewerRole(reviewer.Role) {
		return BulkReviewResult{}, domainpoints.ErrReviewerForbidden
	}

	out := BulkReviewResult{}
	for _, submissionID := range input.SubmissionIDs {
		_, itemErr := s.ReviewSubmission(ctx, ReviewInput{
			SubmissionID: submissionID,
			ReviewerID:   input.ReviewerID,
			Action:       input.Action,
			Note:         input.Note,
		})
		if itemErr != nil {
			out.Failed++
			out.Errors = append(out.Errors, BulkReviewError{
				SubmissionID: submissionID,
				Err:          itemErr.Error(),
			})
			continue
		}
		out.Processed++
	}
	return out, nil
}
