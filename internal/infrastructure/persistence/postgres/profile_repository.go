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

type profileRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewProfileRepository creates the PostgreSQL-backed profile repository.
func NewProfileRepository(db *gorm.DB, log logger.Logger) repository.ProfileRepository {
	return &profileRepository{db: db, logger: log}
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var row profileDBM
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound("profile", id.String())
		}
		r.logger.Error(ctx, "Failed to load profile", err, logger.String("profile_id", id.String()))
		return nil, errors.ErrPersistence("find profile", err)
	}
	return row.toDomain(), nil
}

func (r *profileRepository) FindByUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Profile, error) {
	var row profileDBM
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrProfileNotFound(userID.String())
		}
		r.logger.Error(ctx, "Failed to resolve profile by user", err,
			logger.String("organization_id", orgID.String()),
			logger.String("user_id", userID.String()),
		)
		return nil, errors.ErrPersistence("find profile by user", err)
	}
	return row.toDomain(), nil
}

func (r *profileRepository) Save(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profileFromDomain(profile)).Error; err != nil {
		r.logger.Error(ctx, "Failed to create profile", err,
			logger.String("profile_id", profile.ID.String()),
		)
		return errors.ErrPersistence("create profile", err)
	}
	return nil
}

func (r *profileRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&profileDBM{}).
		Where("id = ?", id).
		Update("active", false)
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to deactivate profile", result.Error,
			logger.String("profile_id", id.String()),
		)
		return errors.ErrPersistence("deactivate profile", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound("profile", id.String())
	}
	return nil
}

// ApplyScoreDelta runs the read-clamp-write-append sequence inside a single
// transaction holding a row lock on the profile, so concurrent deltas
// against the same profile serialize and none is lost.
func (r *profileRepository) ApplyScoreDelta(ctx context.Context, profileID uuid.UUID, delta int, reason string) (int, int, error) {
	var previous, current int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row profileDBM
		if err := lockForUpdate(tx).First(&row, "id = ?", profileID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrNotFound("profile", profileID.String())
			}
			return err
		}

		previous = row.SecurityScore
		current = models.ClampScore(previous + delta)

		if err := tx.Model(&profileDBM{}).
			Where("id = ?", profileID).
			Updates(map[string]interface{}{
				"security_score":   current,
				"score_updated_at": time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		entry := models.NewScoreHistoryEntry(profileID, previous, current, reason)
		return tx.Create(scoreHistoryFromDomain(entry)).Error
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return 0, 0, err
		}
		r.logger.Error(ctx, "Failed to apply score delta", err,
			logger.String("profile_id", profileID.String()),
			logger.Int("delta", delta),
		)
		return 0, 0, errors.ErrPersistence("apply score delta", err)
	}

	return previous, current, nil
}

func (r *profileRepository) ScoreHistory(ctx context.Context, profileID uuid.UUID, limit int) ([]*models.ScoreHistoryEntry, error) {
	query := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []scoreHistoryDBM
	if err := query.Find(&rows).Error; err != nil {
		r.logger.Error(ctx, "Failed to load score history", err,
			logger.String("profile_id", profileID.String()),
		)
		return nil, errors.ErrPersistence("load score history", err)
	}

	entries := make([]*models.ScoreHistoryEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toDomain())
	}
	return entries, nil
}

// lockForUpdate applies a SELECT ... FOR UPDATE row lock on dialects that
// support it. SQLite serializes writers at the database level instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
