package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MaintenanceStatus string

const (
	MaintenanceOpen       MaintenanceStatus = "OPEN"
	MaintenanceInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceCancelled  MaintenanceStatus = "CANCELLED"
)

type MaintenancePriority string

const (
	MaintenanceLow    MaintenancePriority = "LOW"
	MaintenanceMedium MaintenancePriority = "MEDIUM"
	MaintenanceHigh   MaintenancePriority = "HIGH"
	MaintenanceUrgent MaintenancePriority = "URGENT"
)

type MaintenanceRequest struct {
	ID         string              `json:"id"`
	PropertyID string              `json:"propertyId"`
	Title      string              `json:"title"`
	Status     MaintenanceStatus   `json:"status"`
	Priority   MaintenancePriority `json:"priority"`
	CreatedAt  time.Time           `json:"createdAt"`
}

type LeaseStatus string

const (
	LeaseActive  LeaseStatus = "ACTIVE"
	LeaseEnded   LeaseStatus = "ENDED"
	LeasePending LeaseStatus = "PENDING"
)

type Lease struct {
	ID          string          `json:"id"`
	PropertyID  string          `json:"propertyId"`
	TenantName  string          `json:"tenantName"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     *time.Time      `json:"endDate,omitempty"`
	MonthlyRent decimal.Decimal `json:"monthlyRent"`
	Status      LeaseStatus     `json:"status"`
}

type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

type Transaction struct {
	ID         string          `json:"id"`
	PropertyID string          `json:"propertyId"`
	Type       TransactionType `json:"type"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
}
