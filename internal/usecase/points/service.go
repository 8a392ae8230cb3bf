package points

import (
	"context"
	"time"

	domainpoints "edupoints/internal/domain/points"
	"edupoints/internal/ports"
)

// Config carries the award policy the engine runs under. Zero values fall
// back to the domain defaults.
type Config struct {
	EligibleTags        []string
	ExcludedAccountType string
	FreshnessWindow     time.Duration
	CompletionPoints    int
	ExternalSource      string
}

const (
	defaultFreshnessWindow  = 5 * time.Minute
	defaultCompletionPoints = 10
	defaultExternalSource   = "lms"
)

type Service struct {
	repo             ports.PointsRepository
	uow              ports.UnitOfWork
	cache            ports.Cache
	eligibility      domainpoints.Eligibility
	freshnessWindow  time.Duration
	completionPoints int
	externalSource   string
	now              func() time.Time
}

// NewService wires the points engine with repository, unit of work and
// optional cache.
func NewService(repo ports.PointsRepository, uow ports.UnitOfWork, cache ports.Cache, cfg Config) *Service {
	freshness := cfg.FreshnessWindow
	if freshness <= 0 {
		freshness = defaultFreshnessWindow
	}
	completionPoints := cfg.CompletionPoints
	if completionPoints <= 0 {
		completionPoints = defaultCompletionPoints
	}
	externalSource := cfg.ExternalSource
	if externalSource == "" {
		externalSource = defaultExternalSource
	}

	return &Service{
		repo:             repo,
		uow:              uow,
		cache:            cache,
		eligibility:      domainpoints.NewEligibility(cfg.EligibleTags, cfg.ExcludedAccountType),
		freshnessWindow:  freshness,
		completionPoints: completionPoints,
		externalSource:   externalSource,
		now:              time.Now,
	}
}

type IngestInput struct {
	Payload []byte
	// AdminReplay skips the freshness gate; set only by trusted internal
	// tooling for deliberate backfills.
	AdminReplay bool
}

type IngestResult struct {
	Outcome         domainpoints.Outcome
	Duplicate       bool
	ExternalEventID string
	Tag             string
	UserID          uint64
	PointsAwarded   int
}

type ReviewInput struct {
	SubmissionID uint64
	ReviewerID   uint64
	Action       string
	Note         string
	Adjustment   int
}

type ReviewResult struct {
	SubmissionID    uint64
	Status          string
	PointsAwarded   *int
	AlreadyReviewed bool
	Message         string
}

type BulkReviewInput struct {
	SubmissionIDs []uint64
	ReviewerID    uint64
	Action        string
	Note          string
}

type BulkReviewError struct {
	SubmissionID uint64
	Err          string
}

type BulkReviewResult struct {
	Processed int
	Failed    int
	Errors    []BulkReviewError
}

type RegisterUserInput struct {
	Email             string
	DisplayName       string
	ExternalContactID string
	AccountType       string
	Role              string
}

type SubmitEvidenceInput struct {
	UserID          uint64
	ActivityCode    string
	Visibility      string
	PeersTrained    int
	StudentsTrained int
}

type ScoreSummary struct {
	UserID      uint64
	TotalPoints int64
	Badges      []string
}

type LedgerItem struct {
	EntryID         uint64
	ActivityCode    string
	Source          string
	ExternalEventID string
	DeltaPoints     int
	EventTime       string
}

type UnmatchedEventItem struct {
	ExternalEventID string
	Tag             string
	ContactID       string
	Email           string
	EventTime       string
	ReceivedAt      string
}

func (s *Service) invalidateScoreBestEffort(ctx context.Context, userID uint64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, userScoreCacheKey(userID))
}

func (s *Service) setScoreBestEffort(ctx context.Context, userID uint64, value string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, userScoreCacheKey(userID), value, 0)
}
