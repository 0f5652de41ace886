package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/internal/domain/repository"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

type threatRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewThreatRepository creates the PostgreSQL-backed threat repository.
func NewThreatRepository(db *gorm.DB, log logger.Logger) repository.ThreatRepository {
	return &threatRepository{db: db, logger: log}
}

func (r *threatRepository) Create(ctx context.Context, threat *models.ThreatDetection) error {
	if err := r.db.WithContext(ctx).Create(threatFromDomain(threat)).Error; err != nil {
		r.logger.Error(ctx, "Failed to persist threat detection", err,
			logger.String("threat_id", threat.ID.String()),
			logger.String("profile_id", threat.ProfileID.String()),
		)
		return errors.ErrPersistence("create threat", err)
	}
	return nil
}

func (r *threatRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ThreatDetection, error) {
	var row threatDBM
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound("threat", id.String())
		}
		r.logger.Error(ctx, "Failed to load threat detection", err, logger.String("threat_id", id.String()))
		return nil, errors.ErrPersistence("find threat", err)
	}
	return row.toDomain(), nil
}

func (r *threatRepository) List(ctx context.Context, filter repository.ThreatFilter) ([]*models.ThreatDetection, error) {
	query := r.db.WithContext(ctx).
		Where("organization_id = ?", filter.OrganizationID).
		Order("created_at DESC")
	if filter.ProfileID != nil {
		query = query.Where("profile_id = ?", *filter.ProfileID)
	}
	if filter.RiskLevel != "" && filter.RiskLevel != constants.RiskLevelNone {
		query = query.Where("risk_level = ?", string(filter.RiskLevel))
	}
	if filter.Resolved != nil {
		if *filter.Resolved {
			query = query.Where("resolved_at IS NOT NULL")
		} else {
			query = query.Where("resolved_at IS NULL")
		}
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []threatDBM
	if err := query.Find(&rows).Error; err != nil {
		r.logger.Error(ctx, "Failed to list threat detections", err,
			logger.String("organization_id", filter.OrganizationID.String()),
		)
		return nil, errors.ErrPersistence("list threats", err)
	}

	threats := make([]*models.ThreatDetection, 0, len(rows))
	for i := range rows {
		threats = append(threats, rows[i].toDomain())
	}
	return threats, nil
}

// Resolve is a conditional write guarded by resolved_at IS NULL, so only
// one of any number of concurrent resolvers can win the transition.
func (r *threatRepository) Resolve(ctx context.Context, id, resolverID uuid.UUID, note string) error {
	result := r.db.WithContext(ctx).
		Model(&threatDBM{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Updates(map[string]interface{}{
			"resolved_at":     time.Now().UTC(),
			"resolved_by":     resolverID,
			"resolution_note": note,
		})
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to resolve threat detection", result.Error,
			logger.String("threat_id", id.String()),
		)
		return errors.ErrPersistence("resolve threat", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&threatDBM{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return errors.ErrPersistence("resolve threat", err)
		}
		if count == 0 {
			return errors.ErrNotFound("threat", id.String())
		}
		return errors.ErrAlreadyResolved(id.String())
	}
	return nil
}
