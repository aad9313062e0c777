package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterworks/backend/internal/domain/shared"
)

// MeterReadingStatus tracks whether a reading has been turned into a bill
type MeterReadingStatus string

const (
	MeterReadingStatusRecorded MeterReadingStatus = "RECORDED"
	MeterReadingStatusBilled   MeterReadingStatus = "BILLED"
)

// MeterReading is a confirmed monthly index pair for one meter.
// Consumption is the index delta in cubic meters.
type MeterReading struct {
	shared.BaseEntity
	ContractID       uuid.UUID          `json:"contract_id"`
	CustomerID       uuid.UUID          `json:"customer_id"`
	MeterCode        string             `json:"meter_code"`
	ReadingDate      time.Time          `json:"reading_date"`
	PreviousIndex    decimal.Decimal    `json:"previous_index"`
	CurrentIndex     decimal.Decimal    `json:"current_index"`
	Consumption      decimal.Decimal    `json:"consumption"`
	RecordedByStaffID uuid.UUID         `json:"recorded_by_staff_id"`
	Status           MeterReadingStatus `json:"status"`
}

// NewMeterReading records a confirmed index pair for a contract's meter
func NewMeterReading(contractID, customerID uuid.UUID, meterCode string, readingDate time.Time,
	previousIndex, currentIndex decimal.Decimal, recordedBy uuid.UUID) (*MeterReading, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "Contract ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if meterCode == "" {
		return nil, shared.NewDomainError("INVALID_METER_CODE", "Meter code cannot be empty")
	}
	if previousIndex.IsNegative() {
		return nil, shared.NewDomainError("INVALID_READING", "Previous index cannot be negative")
	}
	if currentIndex.LessThan(previousIndex) {
		return nil, shared.NewDomainError("INVALID_READING", "Current index cannot be below the previous index")
	}
	return &MeterReading{
		BaseEntity:        shared.NewBaseEntity(),
		ContractID:        contractID,
		CustomerID:        customerID,
		MeterCode:         meterCode,
		ReadingDate:       readingDate,
		PreviousIndex:     previousIndex,
		CurrentIndex:      currentIndex,
		Consumption:       currentIndex.Sub(previousIndex),
		RecordedByStaffID: recordedBy,
		Status:            MeterReadingStatusRecorded,
	}, nil
}

// MarkBilled flags the reading once an invoice has been issued from it
func (r *MeterReading) MarkBilled() error {
	if r.Status == MeterReadingStatusBilled {
		return shared.NewDomainError("READING_ALREADY_BILLED", "Meter reading is already billed")
	}
	r.Status = MeterReadingStatusBilled
	r.UpdatedAt = time.Now()
	return nil
}
