package points

import (
	"context"
	"errors"

	"edupoints/internal/ports"
)

// resolveUser maps the event's external contact id to an internal user, with
// email as the fallback. A user found by email gets the contact id backfilled
// so future deliveries resolve directly. Returns found=false when neither
// strategy matches; that is a terminal outcome, not an error.
func (s *Service) resolveUser(ctx context.Context, event CanonicalEvent) (ports.User, bool, error) {
	if event.ContactID != "" {
		user, err := s.repo.FindUserByContactID(ctx, event.ContactID)
		if err == nil {
			return user, true, nil
		}
		if !errors.Is(err, ports.ErrUserNotFound) {
			return ports.User{}, false, err
		}
	}

	if event.Email == "" {
		return ports.User{}, false, nil
	}

	user, err := s.repo.FindUserByEmail(ctx, event.Email)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return ports.User{}, false, nil
		}
		return ports.User{}, false, err
	}

	// Backfill only when the slot is empty: a conflicting mapping should be
	// resolved by an operator, not overwritten by whichever event came last.
	if event.ContactID != "" && user.ExternalContactID == "" {
		if err := s.repo.SetUserContactID(ctx, user.UserID, event.ContactID); err != nil {
			return ports.User{}, false, err
		}
		user.ExternalContactID = event.ContactID
	}

	return user, true, nil
}
