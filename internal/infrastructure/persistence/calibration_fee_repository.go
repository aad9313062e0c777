package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/billing"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCalibrationFeeRepository implements billing.CalibrationFeeRepository using GORM
type GormCalibrationFeeRepository struct {
	db *gorm.DB
}

// NewGormCalibrationFeeRepository creates a new GormCalibrationFeeRepository
func NewGormCalibrationFeeRepository(db *gorm.DB) *GormCalibrationFeeRepository {
	return &GormCalibrationFeeRepository{db: db}
}

// FindByID finds a calibration fee by its ID
func (r *GormCalibrationFeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.CalibrationFee, error) {
	var model models.CalibrationFeeModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnbilledByStaff finds a page of the unbilled fees recorded by a staff
// member, oldest calibration first. The filter's search term narrows by
// meter code.
func (r *GormCalibrationFeeRepository) FindUnbilledByStaff(ctx context.Context, staffID uuid.UUID, filter shared.Filter) ([]billing.CalibrationFee, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CalibrationFeeModel{}).
		Where("performed_by_staff_id = ? AND invoice_id IS NULL", staffID)
	if filter.Search != "" {
		query = query.Where("meter_code LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var feeModels []models.CalibrationFeeModel
	if err := query.
		Order("calibration_date ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&feeModels).Error; err != nil {
		return nil, 0, err
	}

	fees := make([]billing.CalibrationFee, len(feeModels))
	for i, model := range feeModels {
		fees[i] = *model.ToDomain()
	}
	return fees, total, nil
}

// FindByInvoiceID finds the fee bound to an invoice
func (r *GormCalibrationFeeRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*billing.CalibrationFee, error) {
	var model models.CalibrationFeeModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a calibration fee. A second fee claiming the same
// invoice hits the unique index and surfaces as ErrAlreadyExists.
func (r *GormCalibrationFeeRepository) Save(ctx context.Context, fee *billing.CalibrationFee) error {
	model := models.CalibrationFeeModelFromDomain(fee)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("calibration fee for invoice: %w", shared.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (version check). A column map
// is used instead of the model struct so releasing a fee writes the NULL
// invoice_id through.
func (r *GormCalibrationFeeRepository) SaveWithLock(ctx context.Context, fee *billing.CalibrationFee) error {
	result := r.db.WithContext(ctx).
		Model(&models.CalibrationFeeModel{}).
		Where("id = ? AND version = ?", fee.ID, fee.Version-1).
		Updates(map[string]interface{}{
			"invoice_id": fee.InvoiceID,
			"notes":      fee.Notes,
			"version":    fee.Version,
			"updated_at": fee.UpdatedAt,
		})

	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("calibration fee for invoice: %w", shared.ErrAlreadyExists)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("calibration fee %s: %w", fee.ID, shared.ErrConcurrencyConflict)
	}
	return nil
}

// Ensure GormCalibrationFeeRepository implements CalibrationFeeRepository
var _ billing.CalibrationFeeRepository = (*GormCalibrationFeeRepository)(nil)
