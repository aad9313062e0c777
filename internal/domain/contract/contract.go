package contract

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/shared"
)

// ContractStatus represents the lifecycle state of a supply contract
type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusExpired    ContractStatus = "EXPIRED"
	ContractStatusTerminated ContractStatus = "TERMINATED"
)

// IsValid checks if the status is a valid ContractStatus
func (s ContractStatus) IsValid() bool {
	return s == ContractStatusActive || s == ContractStatusExpired || s == ContractStatusTerminated
}

// Contract is a water supply agreement between the utility and a customer.
// Billing and reminders only ever act on ACTIVE contracts.
type Contract struct {
	shared.BaseAggregateRoot
	ContractNumber string         `json:"contract_number"`
	CustomerID     uuid.UUID      `json:"customer_id"`
	MeterCode      string         `json:"meter_code"`
	SupplyAddress  string         `json:"supply_address"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	Status         ContractStatus `json:"status"`
}

// NewContract creates an active supply contract
func NewContract(contractNumber string, customerID uuid.UUID, meterCode, supplyAddress string,
	startDate, endDate time.Time) (*Contract, error) {
	if contractNumber == "" {
		return nil, shared.NewDomainError("INVALID_CONTRACT_NUMBER", "Contract number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if meterCode == "" {
		return nil, shared.NewDomainError("INVALID_METER_CODE", "Meter code cannot be empty")
	}
	if !endDate.After(startDate) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Contract end date must be after the start date")
	}
	return &Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractNumber:    contractNumber,
		CustomerID:        customerID,
		MeterCode:         meterCode,
		SupplyAddress:     supplyAddress,
		StartDate:         startDate,
		EndDate:           endDate,
		Status:            ContractStatusActive,
	}, nil
}

// IsActive returns true while the contract is in force
func (c *Contract) IsActive() bool {
	return c.Status == ContractStatusActive
}

// ExpiresWithin reports whether an active contract's end date falls inside
// the window [today, today+days].
func (c *Contract) ExpiresWithin(today time.Time, days int) bool {
	if !c.IsActive() {
		return false
	}
	windowEnd := today.AddDate(0, 0, days)
	return !c.EndDate.Before(today) && !c.EndDate.After(windowEnd)
}

// DaysUntilExpiry returns the whole days remaining until the end date
func (c *Contract) DaysUntilExpiry(today time.Time) int {
	return int(c.EndDate.Sub(today).Hours() / 24)
}

// MarkExpired transitions an active contract whose end date has passed
func (c *Contract) MarkExpired() error {
	if c.Status != ContractStatusActive {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only active contracts can expire, contract %s is %s", c.ContractNumber, c.Status))
	}
	c.Status = ContractStatusExpired
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// Terminate ends an active contract before its end date
func (c *Contract) Terminate() error {
	if c.Status != ContractStatusActive {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only active contracts can be terminated, contract %s is %s", c.ContractNumber, c.Status))
	}
	c.Status = ContractStatusTerminated
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}
