package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"edupoints/internal/errs"
	"edupoints/internal/infrastructure/persistence/sqlite/model"
	"edupoints/internal/ports"
)

type PointsRepository struct {
	db *gorm.DB
}

var _ ports.PointsRepository = (*PointsRepository)(nil)

func NewPointsRepository(db *gorm.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

func (r *PointsRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *PointsRepository) GetUser(ctx context.Context, userID uint64) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}

	var row model.User
	if err := db.Where("user_id = ?", userID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, ports.ErrUserNotFound
		}
		return ports.User{}, errs.Wrap(err, "query user")
	}
	return mapUser(row), nil
}

func (r *PointsRepository) FindUserByContactID(ctx context.Context, contactID string) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}

	contactID = strings.TrimSpace(contactID)
	if contactID == "" {
		return ports.User{}, ports.ErrUserNotFound
	}

	var row model.User
	if err := db.Where("external_contact_id = ?", contactID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, ports.ErrUserNotFound
		}
		return ports.User{}, errs.Wrap(err, "query user by contact id")
	}
	return mapUser(row), nil
}

func (r *PointsRepository) FindUserByEmail(ctx context.Context, email string) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ports.User{}, ports.ErrUserNotFound
	}

	var row model.User
	if err := db.Where("email = ?", email).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, ports.ErrUserNotFound
		}
		return ports.User{}, errs.Wrap(err, "query user by email")
	}
	return mapUser(row), nil
}

func (r *PointsRepository) CreateUser(ctx context.Context, input ports.UserCreate) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}

	row := model.User{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: input.DisplayName,
		AccountType: input.AccountType,
		Role:        input.Role,
		CreatedAt:   input.CreatedAt,
	}
	if contactID := strings.TrimSpace(input.ExternalContactID); contactID != "" {
		row.ExternalContactID = &contactID
	}

	if err := db.Create(&row).Error; err != nil {
		return ports.User{}, errs.Wrap(err, "insert user")
	}
	return mapUser(row), nil
}

func (r *PointsRepository) SetUserContactID(ctx context.Context, userID uint64, contactID string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.User{}).
		Where("user_id = ?", userID).
		Update("external_contact_id", strings.TrimSpace(contactID)).Error; err != nil {
		return errs.Wrap(err, "backfill user contact id")
	}
	return nil
}

func (r *PointsRepository) CreateExternalEvent(ctx context.Context, input ports.ExternalEventCreate) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	row := model.ExternalEvent{
		ExternalEventID:   input.ExternalEventID,
		TagNormalized:     input.TagNormalized,
		TagRaw:            input.TagRaw,
		ExternalContactID: input.ExternalContactID,
		Email:             input.Email,
		EventTime:         input.EventTime,
		Status:            input.Status,
		ReceivedAt:        input.ReceivedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_event_id"}, {Name: "tag_normalized"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert external event")
	}
	return result.RowsAffected > 0, nil
}

func (r *PointsRepository) UpdateExternalEventStatus(ctx context.Context, externalEventID string, tagNormalized string, status string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.ExternalEvent{}).
		Where("external_event_id = ? AND tag_normalized = ?", externalEventID, tagNormalized).
		Update("status", status).Error; err != nil {
		return errs.Wrap(err, "update external event status")
	}
	return nil
}

func (r *PointsRepository) ListExternalEventsByStatus(ctx context.Context, status string, limit int) ([]ports.ExternalEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ExternalEvent{}).Where("status = ?", status).Order("event_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.ExternalEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query external events by status")
	}

	items := make([]ports.ExternalEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ExternalEvent{
			EventID:           row.EventID,
			ExternalEventID:   row.ExternalEventID,
			TagRaw:            row.TagRaw,
			TagNormalized:     row.TagNormalized,
			ExternalContactID: row.ExternalContactID,
			Email:             row.Email,
			EventTime:         row.EventTime,
			Status:            row.Status,
			ReceivedAt:        row.ReceivedAt,
		})
	}
	return items, nil
}

func (r *PointsRepository) CreateGrant(ctx context.Context, input ports.GrantCreate) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	row := model.Grant{
		UserID:    input.UserID,
		TagName:   input.TagName,
		GrantedAt: input.GrantedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "tag_name"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert grant")
	}
	return result.RowsAffected > 0, nil
}

func (r *PointsRepository) CreateLedgerEntry(ctx context.Context, input ports.LedgerEntryCreate) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	row := model.LedgerEntry{
		UserID:       input.UserID,
		ActivityCode: input.ActivityCode,
		Source:       input.Source,
		DeltaPoints:  input.DeltaPoints,
		EventTime:    input.EventTime,
		MetadataJSON: input.MetadataJSON,
		CreatedAt:    input.CreatedAt,
	}
	if source := strings.TrimSpace(input.ExternalSource); source != "" {
		row.ExternalSource = &source
	}
	if eventID := strings.TrimSpace(input.ExternalEventID); eventID != "" {
		row.ExternalEventID = &eventID
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_event_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert ledger entry")
	}
	return result.RowsAffected > 0, nil
}

func (r *PointsRepository) SumLedgerPoints(ctx context.Context, userID uint64) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var total *int64
	if err := db.Model(&model.LedgerEntry{}).
		Where("user_id = ?", userID).
		Select("sum(delta_points)").
		Scan(&total).Error; err != nil {
		return 0, errs.Wrap(err, "sum ledger points")
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *PointsRepository) ListLedgerEntries(ctx context.Context, userID uint64, limit int) ([]ports.LedgerEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.LedgerEntry{}).Where("user_id = ?", userID).Order("entry_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.LedgerEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query ledger entries")
	}

	items := make([]ports.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.LedgerEntry{
			EntryID:         row.EntryID,
			UserID:          row.UserID,
			ActivityCode:    row.ActivityCode,
			Source:          row.Source,
			ExternalSource:  derefString(row.ExternalSource),
			ExternalEventID: derefString(row.ExternalEventID),
			DeltaPoints:     row.DeltaPoints,
			EventTime:       row.EventTime,
			MetadataJSON:    row.MetadataJSON,
			CreatedAt:       row.CreatedAt,
		})
	}
	return items, nil
}

func (r *PointsRepository) CreateSubmission(ctx context.Context, input ports.SubmissionCreate) (ports.Submission, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Submission{}, err
	}

	row := model.Submission{
		UserID:       input.UserID,
		ActivityCode: input.ActivityCode,
		Status:       "pending",
		Visibility:   input.Visibility,
		PayloadJSON:  input.PayloadJSON,
		CreatedAt:    input.CreatedAt,
		UpdatedAt:    input.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Submission{}, errs.Wrap(err, "insert submission")
	}
	return mapSubmission(row), nil
}

func (r *PointsRepository) GetSubmission(ctx context.Context, submissionID uint64) (ports.Submission, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Submission{}, err
	}

	var row model.Submission
	if err := db.Where("submission_id = ?", submissionID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Submission{}, ports.ErrSubmissionNotFound
		}
		return ports.Submission{}, errs.Wrap(err, "query submission")
	}
	return mapSubmission(row), nil
}

func (r *PointsRepository) MarkSubmissionReviewed(ctx context.Context, review ports.SubmissionReview) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	updates := map[string]any{
		"status":      review.Status,
		"reviewer_id": review.ReviewerID,
		"review_note": review.ReviewNote,
		"reviewed_at": review.ReviewedAt,
		"updated_at":  review.ReviewedAt,
	}
	if review.PointsAwarded != nil {
		updates["points_awarded"] = *review.PointsAwarded
	}

	// The pending guard makes the row the arbiter of the one allowed status
	// transition, like the OnConflict inserts above.
	result := db.Model(&model.Submission{}).
		Where("submission_id = ? AND status = ?", review.SubmissionID, "pending").
		Updates(updates)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "update submission review")
	}
	return result.RowsAffected > 0, nil
}

func (r *PointsRepository) CountApprovedSubmissions(ctx context.Context, userID uint64) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Submission{}).
		Where("user_id = ? AND status = ?", userID, "approved").
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count approved submissions")
	}
	return count, nil
}

func (r *PointsRepository) ListBadges(ctx context.Context) ([]ports.Badge, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Badge
	if err := db.Order("badge_code asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query badges")
	}

	items := make([]ports.Badge, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Badge{
			BadgeCode:              row.BadgeCode,
			Name:                   row.Name,
			Description:            row.Description,
			MinTotalPoints:         row.MinTotalPoints,
			MinApprovedSubmissions: row.MinApprovedSubmissions,
		})
	}
	return items, nil
}

func (r *PointsRepository) ListEarnedBadges(ctx context.Context, userID uint64) ([]ports.EarnedBadge, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.EarnedBadge
	if err := db.Where("user_id = ?", userID).Order("badge_code asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query earned badges")
	}

	items := make([]ports.EarnedBadge, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.EarnedBadge{
			UserID:    row.UserID,
			BadgeCode: row.BadgeCode,
			EarnedAt:  row.EarnedAt,
		})
	}
	return items, nil
}

func (r *PointsRepository) UpsertBadge(ctx context.Context, badge ports.Badge) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Badge{
		BadgeCode:              badge.BadgeCode,
		Name:                   badge.Name,
		Description:            badge.Description,
		MinTotalPoints:         badge.MinTotalPoints,
		MinApprovedSubmissions: badge.MinApprovedSubmissions,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "badge_code"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":                     row.Name,
			"description":              row.Description,
			"min_total_points":         row.MinTotalPoints,
			"min_approved_submissions": row.MinApprovedSubmissions,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert badge")
	}
	return nil
}

func (r *PointsRepository) CreateEarnedBadge(ctx context.Context, earned ports.EarnedBadge) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	row := model.EarnedBadge{
		UserID:    earned.UserID,
		BadgeCode: earned.BadgeCode,
		EarnedAt:  earned.EarnedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_code"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert earned badge")
	}
	return result.RowsAffected > 0, nil
}

func mapUser(row model.User) ports.User {
	return ports.User{
		UserID:            row.UserID,
		Email:             row.Email,
		DisplayName:       row.DisplayName,
		ExternalContactID: derefString(row.ExternalContactID),
		AccountType:       row.AccountType,
		Role:              row.Role,
		CreatedAt:         row.CreatedAt,
	}
}

func mapSubmission(row model.Submission) ports.Submission {
	return ports.Submission{
		SubmissionID:  row.SubmissionID,
		UserID:        row.UserID,
		ActivityCode:  row.ActivityCode,
		Status:        row.Status,
		Visibility:    row.Visibility,
		PayloadJSON:   row.PayloadJSON,
		PointsAwarded: row.PointsAwarded,
		ReviewerID:    row.ReviewerID,
		ReviewNote:    derefString(row.ReviewNote),
		ReviewedAt:    derefString(row.ReviewedAt),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
