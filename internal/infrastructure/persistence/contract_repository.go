package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/contract"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContractRepository implements contract.ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a contract by its business number
func (r *GormContractRepository) FindByNumber(ctx context.Context, contractNumber string) (*contract.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("contract_number = ?", contractNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds contracts with filtering and pagination
func (r *GormContractRepository) FindAll(ctx context.Context, filter contract.ContractFilter) (*shared.Paginated[contract.Contract], error) {
	query := r.db.WithContext(ctx).Model(&models.ContractModel{})
	query = applyContractFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var contractModels []models.ContractModel
	if err := query.
		Order(contractOrderClause(filter)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&contractModels).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(toDomainContracts(contractModels), total, filter.Page, filter.PageSize)
	return &page, nil
}

// FindActiveExpiringWithin finds active contracts whose end date falls inside
// the window [today, today+days]
func (r *GormContractRepository) FindActiveExpiringWithin(ctx context.Context, today time.Time, days int) ([]contract.Contract, error) {
	dayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	windowEnd := dayStart.AddDate(0, 0, days+1)

	var contractModels []models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_date >= ? AND end_date < ?",
			contract.ContractStatusActive, dayStart, windowEnd).
		Order("end_date ASC").
		Find(&contractModels).Error; err != nil {
		return nil, err
	}
	return toDomainContracts(contractModels), nil
}

// Save creates or updates a contract
func (r *GormContractRepository) Save(ctx context.Context, c *contract.Contract) error {
	model := models.ContractModelFromDomain(c)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("contract number %s: %w", c.ContractNumber, shared.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormContractRepository) SaveWithLock(ctx context.Context, c *contract.Contract) error {
	model := models.ContractModelFromDomain(c)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", c.ID, c.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("contract %s: %w", c.ContractNumber, shared.ErrConcurrencyConflict)
	}
	return nil
}

func applyContractFilter(query *gorm.DB, filter contract.ContractFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("contract_number LIKE ? OR supply_address LIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

func contractOrderClause(filter contract.ContractFilter) string {
	if filter.OrderBy == "" {
		return "contract_number ASC"
	}
	dir := "ASC"
	if strings.ToLower(filter.OrderDir) == "desc" {
		dir = "DESC"
	}
	return filter.OrderBy + " " + dir
}

func toDomainContracts(contractModels []models.ContractModel) []contract.Contract {
	contracts := make([]contract.Contract, len(contractModels))
	for i, model := range contractModels {
		contracts[i] = *model.ToDomain()
	}
	return contracts
}

// Ensure GormContractRepository implements ContractRepository
var _ contract.ContractRepository = (*GormContractRepository)(nil)
