package compliance

import (
	"testing"

	"letting-compliance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevelFor(t *testing.T) {
	assert.Equal(t, RiskLow, RiskLevelFor(0))
	assert.Equal(t, RiskMedium, RiskLevelFor(1))
	assert.Equal(t, RiskMedium, RiskLevelFor(25))
	assert.Equal(t, RiskHigh, RiskLevelFor(26))
	assert.Equal(t, RiskHigh, RiskLevelFor(50))
	assert.Equal(t, RiskCritical, RiskLevelFor(51))
	assert.Equal(t, RiskCritical, RiskLevelFor(100))
}

func TestPortfolioRisk(t *testing.T) {
	expired := testNow.AddDate(0, 0, -3)
	soon := testNow.AddDate(0, 0, 20)
	far := testNow.AddDate(1, 0, 0)

	tests := []struct {
		name      string
		in        PortfolioInputs
		wantScore int
		wantRaw   int
		wantLevel RiskLevel
	}{
		{
			name:      "empty portfolio",
			in:        PortfolioInputs{},
			wantScore: 0, wantRaw: 0, wantLevel: RiskLow,
		},
		{
			name: "one certificate expiring soon",
			in: PortfolioInputs{Certificates: []models.Certificate{
				{ID: "c1", CertificateType: models.CertificateGasSafety, ExpiryDate: soon},
			}},
			wantScore: 10, wantRaw: 10, wantLevel: RiskMedium,
		},
		{
			name: "expired registration and unsafe hmo",
			in: PortfolioInputs{
				Registrations: []models.LandlordRegistration{{ID: "r1", ExpiryDate: expired}},
				HMOLicenses:   []models.HMOLicense{{ID: "h1", ExpiryDate: far, FireSafetyCompliant: false}},
			},
			wantScore: 55, wantRaw: 55, wantLevel: RiskCritical,
		},
		{
			name: "hmo 50 days out counts inside its window",
			in: PortfolioInputs{HMOLicenses: []models.HMOLicense{
				{ID: "h1", ExpiryDate: testNow.AddDate(0, 0, 50), FireSafetyCompliant: true},
			}},
			wantScore: 10, wantRaw: 10, wantLevel: RiskMedium,
		},
		{
			name: "saturates at 100",
			in: PortfolioInputs{Certificates: []models.Certificate{
				{ID: "c1", ExpiryDate: expired}, {ID: "c2", ExpiryDate: expired},
				{ID: "c3", ExpiryDate: expired}, {ID: "c4", ExpiryDate: expired},
			}},
			wantScore: 100, wantRaw: 120, wantLevel: RiskCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PortfolioRisk(tt.in, testNow)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantRaw, got.RawScore)
			assert.Equal(t, tt.wantLevel, got.Level)
		})
	}
}

func TestPortfolioRisk_Factors(t *testing.T) {
	got := PortfolioRisk(PortfolioInputs{
		HMOLicenses: []models.HMOLicense{{ID: "h1", LicenseNumber: "HMO-9", ExpiryDate: testNow.AddDate(0, 0, -1)}},
	}, testNow)

	require.Len(t, got.Factors, 2)
	assert.Equal(t, ReasonExpired, got.Factors[0].Reason)
	assert.Equal(t, 30, got.Factors[0].Points)
	assert.Equal(t, ReasonFireSafetyFailed, got.Factors[1].Reason)
	assert.Equal(t, "h1", got.Factors[1].EntityID)
}
