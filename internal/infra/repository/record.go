package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
	"github.com/linkgenetic/linkid-resolver/internal/infra/database/models"
)

// RecordRepository persists LinkID records in Postgres. Status counts
// are memoized in-process for a short window since the stats endpoint
// is hit far more often than the registry mutates.
type RecordRepository struct {
	db     *gorm.DB
	counts *gocache.Cache
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{
		db:     db,
		counts: gocache.New(30*time.Second, time.Minute),
	}
}

func (r *RecordRepository) FindByID(ctx context.Context, id string) (*domain.LinkIDRecord, error) {
	var row models.LinkIDRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, errors.Wrap(err, "record store lookup failed")
	}
	return toDomain(&row)
}

func (r *RecordRepository) FindActiveByID(ctx context.Context, id string) (*domain.LinkIDRecord, error) {
	var row models.LinkIDRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.StatusActive).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, errors.Wrap(err, "record store lookup failed")
	}
	return toDomain(&row)
}

func (r *RecordRepository) Save(ctx context.Context, record *domain.LinkIDRecord) error {
	row, err := toModel(record)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "updated", "records", "alternates", "policy", "tombstone", "metadata",
		}),
	}).Create(row).Error
	if err != nil {
		return errors.Wrap(err, "record store save failed")
	}

	r.counts.Flush()
	return nil
}

func (r *RecordRepository) FindByIssuer(ctx context.Context, issuer string) ([]domain.LinkIDRecord, error) {
	var rows []models.LinkIDRecord
	err := r.db.WithContext(ctx).
		Where("issuer = ?", issuer).
		Order("created DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "record store query failed")
	}

	out := make([]domain.LinkIDRecord, 0, len(rows))
	for i := range rows {
		rec, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (r *RecordRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	if cached, ok := r.counts.Get(status); ok {
		return cached.(int64), nil
	}

	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.LinkIDRecord{}).
		Where("status = ?", status).
		Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "record store count failed")
	}

	r.counts.SetDefault(status, n)
	return n, nil
}

func toModel(record *domain.LinkIDRecord) (*models.LinkIDRecord, error) {
	recordsJSON, err := json.Marshal(record.Records)
	if err != nil {
		return nil, errors.Wrap(err, "marshal records")
	}

	row := models.LinkIDRecord{
		ID:      record.ID,
		Status:  record.Status,
		Issuer:  record.Issuer,
		Created: record.Created,
		Updated: record.Updated,
		Records: string(recordsJSON),
	}

	if record.Alternates != nil {
		b, err := json.Marshal(record.Alternates)
		if err != nil {
			return nil, errors.Wrap(err, "marshal alternates")
		}
		row.Alternates = string(b)
	}
	if record.Policy != nil {
		b, err := json.Marshal(record.Policy)
		if err != nil {
			return nil, errors.Wrap(err, "marshal policy")
		}
		row.Policy = string(b)
	}
	if record.Tombstone != nil {
		b, err := json.Marshal(record.Tombstone)
		if err != nil {
			return nil, errors.Wrap(err, "marshal tombstone")
		}
		row.Tombstone = string(b)
	}
	if record.Metadata != nil {
		b, err := json.Marshal(record.Metadata)
		if err != nil {
			return nil, errors.Wrap(err, "marshal metadata")
		}
		row.Metadata = string(b)
	}

	return &row, nil
}

func toDomain(row *models.LinkIDRecord) (*domain.LinkIDRecord, error) {
	record := domain.LinkIDRecord{
		ID:      row.ID,
		Status:  row.Status,
		Issuer:  row.Issuer,
		Created: row.Created,
		Updated: row.Updated,
		Records: []domain.ResolutionRecord{},
	}

	if row.Records != "" {
		if err := json.Unmarshal([]byte(row.Records), &record.Records); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("corrupt records document for %s", row.ID))
		}
	}
	if row.Alternates != "" {
		if err := json.Unmarshal([]byte(row.Alternates), &record.Alternates); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("corrupt alternates document for %s", row.ID))
		}
	}
	if row.Policy != "" {
		record.Policy = &domain.ResolutionPolicy{}
		if err := json.Unmarshal([]byte(row.Policy), record.Policy); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("corrupt policy document for %s", row.ID))
		}
	}
	if row.Tombstone != "" {
		record.Tombstone = &domain.Tombstone{}
		if err := json.Unmarshal([]byte(row.Tombstone), record.Tombstone); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("corrupt tombstone document for %s", row.ID))
		}
	}
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &record.Metadata); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("corrupt metadata document for %s", row.ID))
		}
	}

	return &record, nil
}
