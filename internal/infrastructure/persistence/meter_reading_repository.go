package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/contract"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMeterReadingRepository implements contract.MeterReadingRepository using GORM
type GormMeterReadingRepository struct {
	db *gorm.DB
}

// NewGormMeterReadingRepository creates a new GormMeterReadingRepository
func NewGormMeterReadingRepository(db *gorm.DB) *GormMeterReadingRepository {
	return &GormMeterReadingRepository{db: db}
}

// FindByID finds a meter reading by its ID
func (r *GormMeterReadingRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.MeterReading, error) {
	var model models.MeterReadingModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnbilledByContract finds recorded readings not yet billed for a
// contract, oldest first
func (r *GormMeterReadingRepository) FindUnbilledByContract(ctx context.Context, contractID uuid.UUID) ([]contract.MeterReading, error) {
	var readingModels []models.MeterReadingModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ? AND status = ?", contractID, contract.MeterReadingStatusRecorded).
		Order("reading_date ASC").
		Find(&readingModels).Error; err != nil {
		return nil, err
	}
	return toDomainMeterReadings(readingModels), nil
}

// FindLatestByContract finds the newest readings for a contract, ordered by
// reading date descending
func (r *GormMeterReadingRepository) FindLatestByContract(ctx context.Context, contractID uuid.UUID, limit int) ([]contract.MeterReading, error) {
	var readingModels []models.MeterReadingModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("reading_date DESC").
		Limit(limit).
		Find(&readingModels).Error; err != nil {
		return nil, err
	}
	return toDomainMeterReadings(readingModels), nil
}

// Save creates or updates a meter reading
func (r *GormMeterReadingRepository) Save(ctx context.Context, reading *contract.MeterReading) error {
	model := models.MeterReadingModelFromDomain(reading)
	return r.db.WithContext(ctx).Save(model).Error
}

func toDomainMeterReadings(readingModels []models.MeterReadingModel) []contract.MeterReading {
	readings := make([]contract.MeterReading, len(readingModels))
	for i, model := range readingModels {
		readings[i] = *model.ToDomain()
	}
	return readings
}

// Ensure GormMeterReadingRepository implements MeterReadingRepository
var _ contract.MeterReadingRepository = (*GormMeterReadingRepository)(nil)
