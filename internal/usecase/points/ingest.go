package points

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	domainpoints "edupoints/internal/domain/points"
	"edupoints/internal/errs"
	"edupoints/internal/ports"
)

// IngestCompletionEvent runs the full webhook pipeline for one delivery:
// normalize, freshness gate, event dedup, identity resolution, eligibility,
// then the transactional award (grant, ledger entry, badge recompute).
//
// Duplicate/ignored/unmatched/ineligible deliveries return a tagged outcome
// with a nil error so the caller can acknowledge definitively and the sender
// never retries; only unexpected failures surface as errors, leaving the
// event row in `received` for operational retry.
func (s *Service) IngestCompletionEvent(ctx context.Context, input IngestInput) (IngestResult, error) {
	if ctx == nil {
		return IngestResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return IngestResult{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return IngestResult{}, errors.New("points repository is required")
	}
	if s.uow == nil {
		return IngestResult{}, errors.New("points unit of work is required")
	}

	event, err := parseCompletionPayload(input.Payload)
	if err != nil {
		return IngestResult{}, err
	}

	now := s.now()
	eventTime, err := resolveEventTime(event.CreatedAtRaw, now)
	if err != nil {
		return IngestResult{}, err
	}
	if !input.AdminReplay && absDuration(now.Sub(eventTime)) > s.freshnessWindow {
		return IngestResult{}, domainpoints.ErrEventStale
	}

	out := IngestResult{
		ExternalEventID: event.ExternalEventID,
		Tag:             event.TagNormalized,
	}

	// The received marker is written outside the award transaction on
	// purpose: events that fail downstream stay inspectable.
	inserted, err := s.repo.CreateExternalEvent(ctx, externalEventCreate(event, eventTime, now))
	if err != nil {
		return IngestResult{}, err
	}
	if !inserted {
		out.Outcome = domainpoints.OutcomeDuplicate
		out.Duplicate = true
		return out, nil
	}

	if !s.eligibility.TagEligible(event.TagNormalized) {
		return s.finishWithStatus(ctx, out, domainpoints.OutcomeIgnored)
	}

	user, found, err := s.resolveUser(ctx, event)
	if err != nil {
		return IngestResult{}, err
	}
	if !found {
		return s.finishWithStatus(ctx, out, domainpoints.OutcomeUnmatched)
	}
	out.UserID = user.UserID

	if !s.eligibility.AccountEligible(user.AccountType) {
		return s.finishWithStatus(ctx, out, domainpoints.OutcomeIneligible)
	}

	nowStr := formatTime(now)
	duplicate := false
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		granted, grantErr := s.repo.CreateGrant(txCtx, ports.GrantCreate{
			UserID:    user.UserID,
			TagName:   event.TagNormalized,
			GrantedAt: nowStr,
		})
		if grantErr != nil {
			return grantErr
		}
		if !granted {
			duplicate = true
			return s.repo.UpdateExternalEventStatus(txCtx, event.ExternalEventID, event.TagNormalized, string(domainpoints.StatusDuplicate))
		}

		entryInserted, entryErr := s.repo.CreateLedgerEntry(txCtx, s.webhookLedgerCreate(user.UserID, event, eventTime, nowStr))
		if entryErr != nil {
			return entryErr
		}
		if !entryInserted {
			duplicate = true
			return s.repo.UpdateExternalEventStatus(txCtx, event.ExternalEventID, event.TagNormalized, string(domainpoints.StatusDuplicate))
		}

		if err := s.recomputeBadgesTx(txCtx, user.UserID, nowStr); err != nil {
			return err
		}
		return s.repo.UpdateExternalEventStatus(txCtx, event.ExternalEventID, event.TagNormalized, string(domainpoints.StatusProcessed))
	}); err != nil {
		return IngestResult{}, err
	}

	if duplicate {
		out.Outcome = domainpoints.OutcomeDuplicate
		out.Duplicate = true
		return out, nil
	}

	out.Outcome = domainpoints.OutcomeProcessed
	out.PointsAwarded = s.completionPoints
	s.invalidateScoreBestEffort(ctx, user.UserID)
	return out, nil
}

// finishWithStatus records a non-awarding terminal status and returns the
// matching outcome.
func (s *Service) finishWithStatus(ctx context.Context, out IngestResult, outcome domainpoints.Outcome) (IngestResult, error) {
	status := domainpoints.TerminalStatus(outcome)
	if err := s.repo.UpdateExternalEventStatus(ctx, out.ExternalEventID, out.Tag, string(status)); err != nil {
		return IngestResult{}, err
	}
	out.Outcome = outcome
	return out, nil
}

// resolveEventTime: a missing created_at defaults to processing time; a
// present but unparseable one is rejected.
func resolveEventTime(createdAtRaw string, now time.Time) (time.Time, error) {
	if createdAtRaw == "" {
		return now, nil
	}

	parsed, err := time.Parse(time.RFC3339, createdAtRaw)
	if err != nil {
		return time.Time{}, domainpoints.ErrEventTimeInvalid
	}
	return parsed, nil
}

func externalEventCreate(event CanonicalEvent, eventTime time.Time, now time.Time) ports.ExternalEventCreate {
	return ports.ExternalEventCreate{
		ExternalEventID:   event.ExternalEventID,
		TagRaw:            event.TagRaw,
		TagNormalized:     event.TagNormalized,
		ExternalContactID: event.ContactID,
		Email:             event.Email,
		EventTime:         formatTime(eventTime),
		Status:            string(domainpoints.StatusReceived),
		ReceivedAt:        formatTime(now),
	}
}

func (s *Service) webhookLedgerCreate(userID uint64, event CanonicalEvent, eventTime time.Time, nowStr string) ports.LedgerEntryCreate {
	metadata, _ := json.Marshal(map[string]string{
		"tag":        event.TagRaw,
		"contact_id": event.ContactID,
	})

	return ports.LedgerEntryCreate{
		UserID:          userID,
		ActivityCode:    domainpoints.ActivityCourseCompletion,
		Source:          domainpoints.SourceWebhook,
		ExternalSource:  s.externalSource,
		ExternalEventID: webhookLedgerID(event.ExternalEventID, event.TagNormalized),
		DeltaPoints:     s.completionPoints,
		EventTime:       formatTime(eventTime),
		MetadataJSON:    string(metadata),
		CreatedAt:       nowStr,
	}
}
