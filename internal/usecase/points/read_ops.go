package points

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	domainpoints "edupoints/internal/domain/points"
	"edupoints/internal/errs"
	"edupoints/internal/ports"
)

// GetUserScore sums the user's ledger and lists earned badges. The total goes
// through the best-effort KV cache; award paths invalidate it.
func (s *Service) GetUserScore(ctx context.Context, userID uint64) (ScoreSummary, error) {
	if ctx == nil {
		return ScoreSummary{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ScoreSummary{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return ScoreSummary{}, errors.New("points repository is required")
	}

	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return ScoreSummary{}, err
	}

	total, cached := s.cachedScore(ctx, userID)
	if !cached {
		var err error
		total, err = s.repo.SumLedgerPoints(ctx, userID)
		if err != nil {
			return ScoreSummary{}, err
		}
		s.setScoreBestEffort(ctx, userID, strconv.FormatInt(total, 10))
	}

	earned, err := s.repo.ListEarnedBadges(ctx, userID)
	if err != nil {
		return ScoreSummary{}, err
	}
	badges := make([]string, 0, len(earned))
	for _, badge := range earned {
		badges = append(badges, badge.BadgeCode)
	}

	return ScoreSummary{
		UserID:      userID,
		TotalPoints: total,
		Badges:      badges,
	}, nil
}

func (s *Service) cachedScore(ctx context.Context, userID uint64) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	value, found, err := s.cache.Get(ctx, userScoreCacheKey(userID))
	if err != nil || !found {
		return 0, false
	}
	total, parseErr := strconv.ParseInt(value, 10, 64)
	if parseErr != nil {
		return 0, false
	}
	return total, true
}

// ListLedgerEntries returns a user's most recent point transactions.
func (s *Service) ListLedgerEntries(ctx context.Context, userID uint64, limit int) ([]LedgerItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("points repository is required")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.repo.ListLedgerEntries(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]LedgerItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, LedgerItem{
			EntryID:         row.EntryID,
			ActivityCode:    row.ActivityCode,
			Source:          row.Source,
			ExternalEventID: row.ExternalEventID,
			DeltaPoints:     row.DeltaPoints,
			EventTime:       row.EventTime,
		})
	}
	return items, nil
}

// ListUnmatchedEvents exposes the queued_unmatched reconciliation queue:
// events acknowledged to the sender but still waiting for an operator to map
// the contact to a user.
func (s *Service) ListUnmatchedEvents(ctx context.Context, limit int) ([]UnmatchedEventItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("points repository is required")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.repo.ListExternalEventsByStatus(ctx, string(domainpoints.StatusQueuedUnmatched), limit)
	if err != nil {
		return nil, err
	}

	items := make([]UnmatchedEventItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, UnmatchedEventItem{
			ExternalEventID: row.ExternalEventID,
			Tag:             row.TagNormalized,
			ContactID:       row.ExternalContactID,
			Email:           row.Email,
			EventTime:       row.EventTime,
			ReceivedAt:      row.ReceivedAt,
		})
	}
	return items, nil
}

// GetSubmission returns one submission for review tooling.
func (s *Service) GetSubmission(ctx context.Context, submissionID uint64) (ports.Submission, error) {
	if ctx == nil {
		return ports.Submission{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.Submission{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return ports.Submission{}, errors.New("points repository is required")
	}
	return s.repo.GetSubmission(ctx, submissionID)
}

// RegisterUser provisions a participant so contact-id/email resolution has a
// record to hit. The full account subsystem lives elsewhere; this is the
// minimal local surface.
func (s *Service) RegisterUser(ctx context.Context, input RegisterUserInput) (ports.User, error) {
	if ctx == nil {
		return ports.User{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.User{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return ports.User{}, errors.New("points repository is required")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return ports.User{}, errors.New("email is required")
	}

	accountType := strings.ToLower(strings.TrimSpace(input.AccountType))
	if accountType == "" {
		accountType = domainpoints.AccountTypeEducator
	}
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role == "" {
		role = domainpoints.RoleMember
	}

	return s.repo.CreateUser(ctx, ports.UserCreate{
		Email:             email,
		DisplayName:       strings.TrimSpace(input.DisplayName),
		ExternalContactID: strings.TrimSpace(input.ExternalContactID),
		AccountType:       accountType,
		Role:              role,
		CreatedAt:         formatTime(s.now()),
	})
}

// SubmitEvidence records a pending submission for later review. Intake
// validation here is deliberately thin; the richer form flow is out of this
// component's hands.
func (s *Service) SubmitEvidence(ctx context.Context, input SubmitEvidenceInput) (ports.Submission, error) {
	if ctx == nil {
		return ports.Submission{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.Submission{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return ports.Submission{}, errors.New("points repository is required")
	}

	if _, err := s.repo.GetUser(ctx, input.UserID); err != nil {
		return ports.Submission{}, err
	}

	// Reject unknown activities at intake so review never sees them.
	if input.ActivityCode != domainpoints.ActivityPeerTraining {
		if _, err := domainpoints.BasePoints(input.ActivityCode, domainpoints.TrainingCounters{}); err != nil {
			return ports.Submission{}, err
		}
	}

	payload, err := json.Marshal(submissionPayload{
		PeersTrained:    input.PeersTrained,
		StudentsTrained: input.StudentsTrained,
	})
	if err != nil {
		return ports.Submission{}, errs.Wrap(err, "marshal submission payload")
	}

	visibility := strings.TrimSpace(input.Visibility)
	if visibility == "" {
		visibility = "private"
	}

	return s.repo.CreateSubmission(ctx, ports.SubmissionCreate{
		UserID:       input.UserID,
		ActivityCode: input.ActivityCode,
		Visibility:   visibility,
		PayloadJSON:  string(payload),
		CreatedAt:    formatTime(s.now()),
	})
}
