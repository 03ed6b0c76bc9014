package edinet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesCompany(t *testing.T) {
	f := FilingSummary{EdinetCode: "E02144", SecCode: "72030"}

	tests := []struct {
		id   string
		want bool
	}{
		{"E02144", true},
		{"e02144", true},
		{"7203", true},
		{"72030", true},
		{"7204", false},
		{"E00001", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, f.MatchesCompany(tt.id))
		})
	}

	assert.False(t, FilingSummary{EdinetCode: "E99999"}.MatchesCompany("9999"))
}

func TestIsAnnualReport(t *testing.T) {
	base := FilingSummary{DocTypeCode: "120", WithdrawalStatus: "0", XBRLFlag: "1"}
	assert.True(t, base.IsAnnualReport())

	corrected := base
	corrected.DocTypeCode = "130"
	assert.False(t, corrected.IsAnnualReport())

	withdrawn := base
	withdrawn.WithdrawalStatus = "1"
	assert.False(t, withdrawn.IsAnnualReport())

	noXBRL := base
	noXBRL.XBRLFlag = "0"
	assert.False(t, noXBRL.IsAnnualReport())
}

func TestSubmittedAtIsJST(t *testing.T) {
	at, err := FilingSummary{SubmitDateTime: "2024-06-18 15:00"}.SubmittedAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 18, 6, 0, 0, 0, time.UTC), at.UTC())

	_, err = FilingSummary{DocumentID: "S1"}.PeriodEndDate()
	assert.Error(t, err)
}
