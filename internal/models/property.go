package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is the ownership root for every compliance record.
type Property struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Address      string    `json:"address"`
	Postcode     string    `json:"postcode"`
	CouncilArea  string    `json:"councilArea"`
	PropertyType string    `json:"propertyType"`
	Bedrooms     int       `json:"bedrooms"`
	IsHMO        bool      `json:"isHmo"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CertificateType string

const (
	CertificateGasSafety  CertificateType = "GAS_SAFETY"
	CertificateEICR       CertificateType = "EICR"
	CertificateEPC        CertificateType = "EPC"
	CertificatePAT        CertificateType = "PAT"
	CertificateFireSafety CertificateType = "FIRE_SAFETY"
	CertificateLegionella CertificateType = "LEGIONELLA"
	CertificateOther      CertificateType = "OTHER"
)

// Label is the human readable name used in notifications and emails.
func (t CertificateType) Label() string {
	switch t {
	case CertificateGasSafety:
		return "Gas Safety"
	case CertificateEICR:
		return "EICR"
	case CertificateEPC:
		return "EPC"
	case CertificatePAT:
		return "PAT"
	case CertificateFireSafety:
		return "Fire Safety"
	case CertificateLegionella:
		return "Legionella Risk Assessment"
	case CertificateOther:
		return "Other"
	}
	return string(t)
}

// CertificateStatus is advisory. The authoritative state is derived from
// ExpiryDate at read time.
type CertificateStatus string

const (
	CertificateValid    CertificateStatus = "VALID"
	CertificateExpiring CertificateStatus = "EXPIRING"
	CertificateExpired  CertificateStatus = "EXPIRED"
)

type Certificate struct {
	ID                string            `json:"id"`
	PropertyID        string            `json:"propertyId"`
	CertificateType   CertificateType   `json:"certificateType"`
	CertificateNumber string            `json:"certificateNumber,omitempty"`
	IssueDate         time.Time         `json:"issueDate"`
	ExpiryDate        time.Time         `json:"expiryDate"`
	Status            CertificateStatus `json:"status"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// LicenseStatus is shared by landlord registrations and HMO licenses.
type LicenseStatus string

const (
	LicensePending  LicenseStatus = "PENDING"
	LicenseApproved LicenseStatus = "APPROVED"
	LicenseExpired  LicenseStatus = "EXPIRED"
	LicenseRejected LicenseStatus = "REJECTED"
)

type LandlordRegistration struct {
	ID                 string          `json:"id"`
	PropertyID         string          `json:"propertyId"`
	RegistrationNumber string          `json:"registrationNumber"`
	CouncilArea        string          `json:"councilArea"`
	Status             LicenseStatus   `json:"status"`
	RegistrationDate   time.Time       `json:"registrationDate"`
	ExpiryDate         time.Time       `json:"expiryDate"`
	Fee                decimal.Decimal `json:"fee"`
	CreatedAt          time.Time       `json:"createdAt"`
}

type HMOLicense struct {
	ID                  string          `json:"id"`
	PropertyID          string          `json:"propertyId"`
	LicenseNumber       string          `json:"licenseNumber"`
	CouncilArea         string          `json:"councilArea"`
	Status              LicenseStatus   `json:"status"`
	IssueDate           time.Time       `json:"issueDate"`
	ExpiryDate          time.Time       `json:"expiryDate"`
	MaxOccupants        int             `json:"maxOccupants"`
	FireSafetyCompliant bool            `json:"fireSafetyCompliant"`
	Fee                 decimal.Decimal `json:"fee"`
	CreatedAt           time.Time       `json:"createdAt"`
}
