package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/internal/domain/repository"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

type predictionRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewPredictionRepository creates the PostgreSQL-backed prediction repository.
func NewPredictionRepository(db *gorm.DB, log logger.Logger) repository.PredictionRepository {
	return &predictionRepository{db: db, logger: log}
}

// Upsert refreshes every feed-owned column on conflict. The review columns
// are deliberately absent from the assignment list: a feed refresh can
// never undo or overwrite a review.
func (r *predictionRepository) Upsert(ctx context.Context, prediction *models.MLPrediction) error {
	row, err := predictionFromDomain(prediction)
	if err != nil {
		return errors.ErrPersistence("encode prediction", err)
	}
	row.ReviewedAt = nil
	row.ReviewedBy = nil

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"supervised_score",
			"isolation_score",
			"sequence_score",
			"threat_probability",
			"threat_class",
			"threat_level",
			"threat_type",
			"confidence",
			"feature_importance",
			"auto_blocked",
			"requires_review",
		}),
	}).Create(row).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to upsert prediction", err,
			logger.String("prediction_id", prediction.ID.String()),
		)
		return errors.ErrPersistence("upsert prediction", err)
	}
	return nil
}

func (r *predictionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.MLPrediction, error) {
	var row predictionDBM
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound("prediction", id.String())
		}
		r.logger.Error(ctx, "Failed to load prediction", err, logger.String("prediction_id", id.String()))
		return nil, errors.ErrPersistence("find prediction", err)
	}
	prediction, err := row.toDomain()
	if err != nil {
		return nil, errors.ErrPersistence("decode prediction", err)
	}
	return prediction, nil
}

func (r *predictionRepository) List(ctx context.Context, filter repository.PredictionFilter) ([]*models.PredictionView, error) {
	query := r.db.WithContext(ctx).
		Table("ml_predictions").
		Select("ml_predictions.*, "+
			"profiles.display_name AS profile_name, "+
			"profiles.security_score AS profile_score, "+
			"activity_events.activity_type AS activity_type, "+
			"activity_events.description AS activity_description, "+
			"activity_events.occurred_at AS activity_occurred_at").
		Joins("JOIN profiles ON profiles.id = ml_predictions.profile_id").
		Joins("LEFT JOIN activity_events ON activity_events.id = ml_predictions.activity_id").
		Order("ml_predictions.created_at DESC")
	if filter.ProfileID != nil {
		query = query.Where("ml_predictions.profile_id = ?", *filter.ProfileID)
	}
	if filter.ThreatClass != "" {
		query = query.Where("ml_predictions.threat_class = ?", string(filter.ThreatClass))
	}
	if filter.RequiresReview != nil {
		query = query.Where("ml_predictions.requires_review = ?", *filter.RequiresReview)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []predictionRowDBM
	if err := query.Scan(&rows).Error; err != nil {
		r.logger.Error(ctx, "Failed to list predictions", err)
		return nil, errors.ErrPersistence("list predictions", err)
	}

	views := make([]*models.PredictionView, 0, len(rows))
	for i := range rows {
		view, err := rows[i].toDomain()
		if err != nil {
			return nil, errors.ErrPersistence("decode prediction", err)
		}
		views = append(views, view)
	}
	return views, nil
}

// MarkReviewed is a conditional write guarded by reviewed_at IS NULL, so
// exactly one of any number of concurrent reviewers wins the transition.
func (r *predictionRepository) MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&predictionDBM{}).
		Where("id = ? AND reviewed_at IS NULL", id).
		Updates(map[string]interface{}{
			"reviewed_at": time.Now().UTC(),
			"reviewed_by": reviewerID,
		})
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to mark prediction reviewed", result.Error,
			logger.String("prediction_id", id.String()),
		)
		return errors.ErrPersistence("mark prediction reviewed", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&predictionDBM{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return errors.ErrPersistence("mark prediction reviewed", err)
		}
		if count == 0 {
			return errors.ErrNotFound("prediction", id.String())
		}
		return errors.ErrAlreadyReviewed(id.String())
	}
	return nil
}
