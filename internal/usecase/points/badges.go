package points

import (
	"context"

	"edupoints/internal/ports"
)

// recomputeBadgesTx re-evaluates every badge definition for one user and
// grants any newly satisfied badges. Idempotent via the earned_badges
// uniqueness constraint; invoked from both the webhook and review paths
// inside their transactions.
func (s *Service) recomputeBadgesTx(ctx context.Context, userID uint64, earnedAt string) error {
	total, err := s.repo.SumLedgerPoints(ctx, userID)
	if err != nil {
		return err
	}
	approved, err := s.repo.CountApprovedSubmissions(ctx, userID)
	if err != nil {
		return err
	}

	badges, err := s.repo.ListBadges(ctx)
	if err != nil {
		return err
	}

	for _, badge := range badges {
		if total < int64(badge.MinTotalPoints) {
			continue
		}
		if approved < int64(badge.MinApprovedSubmissions) {
			continue
		}
		if _, err := s.repo.CreateEarnedBadge(ctx, ports.EarnedBadge{
			UserID:    userID,
			BadgeCode: badge.BadgeCode,
			EarnedAt:  earnedAt,
		}); err != nil {
			return err
		}
	}
	return nil
}
