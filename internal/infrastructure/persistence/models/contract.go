package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterworks/backend/internal/domain/contract"
)

// ContractModel is the persistence model for the Contract aggregate root.
type ContractModel struct {
	AggregateModel
	ContractNumber string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_contracts_number"`
	CustomerID     uuid.UUID               `gorm:"type:uuid;not null;index"`
	MeterCode      string                  `gorm:"type:varchar(50);not null;index"`
	SupplyAddress  string                  `gorm:"type:varchar(300);not null"`
	StartDate      time.Time               `gorm:"not null"`
	EndDate        time.Time               `gorm:"not null;index"`
	Status         contract.ContractStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract.
func (m *ContractModel) ToDomain() *contract.Contract {
	return &contract.Contract{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ContractNumber:    m.ContractNumber,
		CustomerID:        m.CustomerID,
		MeterCode:         m.MeterCode,
		SupplyAddress:     m.SupplyAddress,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Contract.
func (m *ContractModel) FromDomain(c *contract.Contract) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.ContractNumber = c.ContractNumber
	m.CustomerID = c.CustomerID
	m.MeterCode = c.MeterCode
	m.SupplyAddress = c.SupplyAddress
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate
	m.Status = c.Status
}

// ContractModelFromDomain creates a new persistence model from a domain Contract.
func ContractModelFromDomain(c *contract.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}

// MeterReadingModel is the persistence model for confirmed meter readings.
type MeterReadingModel struct {
	BaseModel
	ContractID        uuid.UUID                   `gorm:"type:uuid;not null;index"`
	CustomerID        uuid.UUID                   `gorm:"type:uuid;not null;index"`
	MeterCode         string                      `gorm:"type:varchar(50);not null;index"`
	ReadingDate       time.Time                   `gorm:"not null;index"`
	PreviousIndex     decimal.Decimal             `gorm:"type:decimal(12,3);not null"`
	CurrentIndex      decimal.Decimal             `gorm:"type:decimal(12,3);not null"`
	Consumption       decimal.Decimal             `gorm:"type:decimal(12,3);not null"`
	RecordedByStaffID uuid.UUID                   `gorm:"type:uuid;not null"`
	Status            contract.MeterReadingStatus `gorm:"type:varchar(20);not null;default:'RECORDED';index"`
}

// TableName returns the table name for GORM
func (MeterReadingModel) TableName() string {
	return "meter_readings"
}

// ToDomain converts the persistence model to a domain MeterReading.
func (m *MeterReadingModel) ToDomain() *contract.MeterReading {
	return &contract.MeterReading{
		BaseEntity:        m.BaseModel.ToDomain(),
		ContractID:        m.ContractID,
		CustomerID:        m.CustomerID,
		MeterCode:         m.MeterCode,
		ReadingDate:       m.ReadingDate,
		PreviousIndex:     m.PreviousIndex,
		CurrentIndex:      m.CurrentIndex,
		Consumption:       m.Consumption,
		RecordedByStaffID: m.RecordedByStaffID,
		Status:            m.Status,
	}
}

// MeterReadingModelFromDomain creates a new persistence model from a domain MeterReading.
func MeterReadingModelFromDomain(r *contract.MeterReading) *MeterReadingModel {
	m := &MeterReadingModel{}
	m.FromDomainBaseEntity(r.BaseEntity)
	m.ContractID = r.ContractID
	m.CustomerID = r.CustomerID
	m.MeterCode = r.MeterCode
	m.ReadingDate = r.ReadingDate
	m.PreviousIndex = r.PreviousIndex
	m.CurrentIndex = r.CurrentIndex
	m.Consumption = r.Consumption
	m.RecordedByStaffID = r.RecordedByStaffID
	m.Status = r.Status
	return m
}
