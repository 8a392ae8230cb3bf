package points

import "errors"

// Authentication failures (webhook signature).
var (
	ErrSignatureMissing = errors.New("webhook signature is missing")
	ErrSignatureInvalid = errors.New("webhook signature is invalid")
)

// Validation failures, rejected before any write.
var (
	ErrPayloadInvalid        = errors.New("event payload does not match a known shape")
	ErrEventTimeInvalid      = errors.New("event timestamp is unparseable")
	ErrEventStale            = errors.New("event timestamp is outside the freshness window")
	ErrInvalidReviewAction   = errors.New("review action must be approve or reject")
	ErrAdjustmentOutOfBounds = errors.New("point adjustment exceeds the allowed bound")
	ErrUnknownActivity       = errors.New("unknown activity code")
)

// Conflict and permission failures on the review path.
var (
	ErrAlreadyReviewed   = errors.New("submission has already been reviewed")
	ErrReviewerForbidden = errors.New("reviewer is not allowed to review submissions")
)
