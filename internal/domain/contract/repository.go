package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/shared"
)

// ContractFilter defines filtering options for contract queries
type ContractFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     *ContractStatus
}

// ContractRepository defines the interface for contract persistence
type ContractRepository interface {
	// FindByID finds a contract by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)

	// FindByNumber finds a contract by its business number
	FindByNumber(ctx context.Context, contractNumber string) (*Contract, error)

	// FindAll finds contracts with filtering and pagination
	FindAll(ctx context.Context, filter ContractFilter) (*shared.Paginated[Contract], error)

	// FindActiveExpiringWithin finds active contracts whose end date falls
	// inside the window [today, today+days]
	FindActiveExpiringWithin(ctx context.Context, today time.Time, days int) ([]Contract, error)

	// Save creates or updates a contract
	Save(ctx context.Context, contract *Contract) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, contract *Contract) error
}

// MeterReadingRepository defines the interface for meter reading persistence
type MeterReadingRepository interface {
	// FindByID finds a meter reading by ID
	FindByID(ctx context.Context, id uuid.UUID) (*MeterReading, error)

	// FindUnbilledByContract finds recorded readings not yet billed for a
	// contract, oldest first
	FindUnbilledByContract(ctx context.Context, contractID uuid.UUID) ([]MeterReading, error)

	// FindLatestByContract finds the newest readings for a contract,
	// ordered by reading date descending
	FindLatestByContract(ctx context.Context, contractID uuid.UUID, limit int) ([]MeterReading, error)

	// Save creates or updates a meter reading
	Save(ctx context.Context, reading *MeterReading) error
}
