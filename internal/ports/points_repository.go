package ports

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSubmissionNotFound = errors.New("submission not found")
)

type User struct {
	UserID            uint64
	Email             string
	DisplayName       string
	ExternalContactID string
	AccountType       string
	Role              string
	CreatedAt         string
}

type UserCreate struct {
	Email             string
	DisplayName       string
	ExternalContactID string
	AccountType       string
	Role              string
	CreatedAt         string
}

type ExternalEvent struct {
	EventID           uint64
	ExternalEventID   string
	TagRaw            string
	TagNormalized     string
	ExternalContactID string
	Email             string
	EventTime         string
	Status            string
	ReceivedAt        string
}

type ExternalEventCreate struct {
	ExternalEventID   string
	TagRaw            string
	TagNormalized     string
	ExternalContactID string
	Email             string
	EventTime         string
	Status            string
	ReceivedAt        string
}

type GrantCreate struct {
	UserID    uint64
	TagName   string
	GrantedAt string
}

type LedgerEntry struct {
	EntryID         uint64
	UserID          uint64
	ActivityCode    string
	Source          string
	ExternalSource  string
	ExternalEventID string
	DeltaPoints     int
	EventTime       string
	MetadataJSON    string
	CreatedAt       string
}

type LedgerEntryCreate struct {
	UserID          uint64
	ActivityCode    string
	Source          string
	ExternalSource  string
	ExternalEventID string
	DeltaPoints     int
	EventTime       string
	MetadataJSON    string
	CreatedAt       string
}

type Submission struct {
	SubmissionID  uint64
	UserID        uint64
	ActivityCode  string
	Status        string
	Visibility    string
	PayloadJSON   string
	PointsAwarded *int
	ReviewerID    *uint64
	ReviewNote    string
	ReviewedAt    string
	CreatedAt     string
	UpdatedAt     string
}

type SubmissionCreate struct {
	UserID       uint64
	ActivityCode string
	Visibility   string
	PayloadJSON  string
	CreatedAt    string
}

type SubmissionReview struct {
	SubmissionID  uint64
	Status        string
	PointsAwarded *int
	ReviewerID    uint64
	ReviewNote    string
	ReviewedAt    string
}

type Badge struct {
	BadgeCode              string
	Name                   string
	Description            string
	MinTotalPoints         int
	MinApprovedSubmissions int
}

type EarnedBadge struct {
	UserID    uint64
	BadgeCode string
	EarnedAt  string
}

// PointsReadRepository is the query surface shared by the engine and the
// operator read ops.
type PointsReadRepository interface {
	GetUser(ctx context.Context, userID uint64) (User, error)
	FindUserByContactID(ctx context.Context, contactID string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)

	ListExternalEventsByStatus(ctx context.Context, status string, limit int) ([]ExternalEvent, error)

	SumLedgerPoints(ctx context.Context, userID uint64) (int64, error)
	ListLedgerEntries(ctx context.Context, userID uint64, limit int) ([]LedgerEntry, error)

	GetSubmission(ctx context.Context, submissionID uint64) (Submission, error)
	CountApprovedSubmissions(ctx context.Context, userID uint64) (int64, error)

	ListBadges(ctx context.Context) ([]Badge, error)
	ListEarnedBadges(ctx context.Context, userID uint64) ([]EarnedBadge, error)
}

// PointsRepository adds the write surface. Create* methods that guard a
// uniqueness constraint report `inserted=false` instead of an error when the
// row already exists: the constraint is the final arbiter under concurrent
// delivery, never a pre-check.
type PointsRepository interface {
	PointsReadRepository

	CreateUser(ctx context.Context, input UserCreate) (User, error)
	SetUserContactID(ctx context.Context, userID uint64, contactID string) error

	CreateExternalEvent(ctx context.Context, input ExternalEventCreate) (inserted bool, err error)
	UpdateExternalEventStatus(ctx context.Context, externalEventID string, tagNormalized string, status string) error

	CreateGrant(ctx context.Context, input GrantCreate) (inserted bool, err error)
	CreateLedgerEntry(ctx context.Context, input LedgerEntryCreate) (inserted bool, err error)

	CreateSubmission(ctx context.Context, input SubmissionCreate) (Submission, error)
	// MarkSubmissionReviewed transitions a pending submission to its reviewed
	// status. The pending guard lives in the UPDATE itself; `transitioned=false`
	// means another reviewer already moved the submission out of pending.
	MarkSubmissionReviewed(ctx context.Context, review SubmissionReview) (transitioned bool, err error)

	UpsertBadge(ctx context.Context, badge Badge) error
	CreateEarnedBadge(ctx context.Context, earned EarnedBadge) (inserted bool, err error)
}
