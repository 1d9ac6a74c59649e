package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM. The table is
// append-only; this repository only reads it.
type GormAuditRepository struct {
	db *Database
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *Database) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// FindByEntity returns the audit trail of one entity, newest first by
// default
func (r *GormAuditRepository) FindByEntity(ctx context.Context, tenantID uuid.UUID, entityKind string, entityID uuid.UUID, filter shared.Filter) ([]audit.Record, error) {
	var records []audit.Record
	query := r.applyFilter(
		r.db.WithTenant(tenantID.String()).WithContext(ctx).Model(&audit.Record{}).
			Where("entity_kind = ? AND entity_id = ?", entityKind, entityID),
		filter,
	)
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByBusinessKey returns every audit record written for a business key
func (r *GormAuditRepository) FindByBusinessKey(ctx context.Context, tenantID uuid.UUID, businessKey string, filter shared.Filter) ([]audit.Record, error) {
	var records []audit.Record
	query := r.applyFilter(
		r.db.WithTenant(tenantID.String()).WithContext(ctx).Model(&audit.Record{}).
			Where("business_key = ?", businessKey),
		filter,
	)
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountByEntity returns how many audit records an entity has accumulated
func (r *GormAuditRepository) CountByEntity(ctx context.Context, tenantID uuid.UUID, entityKind string, entityID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithTenant(tenantID.String()).WithContext(ctx).Model(&audit.Record{}).
		Where("entity_kind = ? AND entity_id = ?", entityKind, entityID).
		Count(&count).Error
	return count, err
}

// auditSortFields contains allowed sort fields for audit records
var auditSortFields = map[string]bool{
	"created_at": true,
	"revision":   true,
}

// applyFilter applies filter options to the query
func (r *GormAuditRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "actor":
			query = query.Where("actor = ?", value)
		case "source_ref":
			query = query.Where("source_ref = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, auditSortFields, "created_at")
	orderDir := "ASC"
	if strings.ToLower(filter.OrderDir) != "asc" {
		orderDir = "DESC"
	}
	return query.Order(orderBy + " " + orderDir)
}

var _ audit.Repository = (*GormAuditRepository)(nil)
