package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits
const (
	DescriptionMinLen = 10
	DescriptionMaxLen = 1000
	RemarksMaxLen     = 1000
	HolderNameMaxLen  = 100
	InsuranceTypeMax  = 50
)

// Money limits of a decimal(15,2) column
const (
	MoneyMin   = 0.01
	MoneyLimit = 1e13
	MoneyScale = 2
)

// PolicyDetails are the applicant-supplied fields of a policy
type PolicyDetails struct {
	HolderName    string
	InsuranceType string
	Coverage      float64
	Premium       float64
	StartDate     time.Time
	EndDate       time.Time
	Description   string
}

// Validate checks every constraint and returns one ValidationError
func (d PolicyDetails) Validate() error {
	v := Violations{}
	if strings.TrimSpace(d.HolderName) == "" {
		v.Add("holder_name", "is required")
	} else if utf8.RuneCountInString(d.HolderName) > HolderNameMaxLen {
		v.Add("holder_name", fmt.Sprintf("must be at most %d characters", HolderNameMaxLen))
	}
	if strings.TrimSpace(d.InsuranceType) == "" {
		v.Add("insurance_type", "is required")
	} else if utf8.RuneCountInString(d.InsuranceType) > InsuranceTypeMax {
		v.Add("insurance_type", fmt.Sprintf("must be at most %d characters", InsuranceTypeMax))
	}
	CheckMoney(v, "coverage_amount", d.Coverage, false)
	CheckMoney(v, "premium", d.Premium, false)
	if d.StartDate.IsZero() {
		v.Add("start_date", "is required")
	}
	if d.EndDate.IsZero() {
		v.Add("end_date", "is required")
	}
	if !d.StartDate.IsZero() && !d.EndDate.IsZero() && d.StartDate.After(d.EndDate) {
		v.Add("end_date", "must not be before start_date")
	}
	checkDescription(v, d.Description)
	return v.Err()
}

// ClaimDetails are the filer-supplied fields of a claim
type ClaimDetails struct {
	Description  string
	Amount       float64
	IncidentDate time.Time
}

// Validate checks every constraint and returns one ValidationError
func (d ClaimDetails) Validate() error {
	v := Violations{}
	checkDescription(v, d.Description)
	CheckMoney(v, "claim_amount", d.Amount, true)
	if d.IncidentDate.IsZero() {
		v.Add("incident_date", "is required")
	}
	return v.Err()
}

// ValidateRemarks checks reviewer remarks length
func ValidateRemarks(remarks string) error {
	v := Violations{}
	checkRemarks(v, remarks)
	return v.Err()
}

func checkDescription(v Violations, s string) {
	n := utf8.RuneCountInString(s)
	if n < DescriptionMinLen || n > DescriptionMaxLen {
		v.Add("description", fmt.Sprintf("must be between %d and %d characters", DescriptionMinLen, DescriptionMaxLen))
	}
}

func checkRemarks(v Violations, s string) {
	if utf8.RuneCountInString(s) > RemarksMaxLen {
		v.Add("remarks", fmt.Sprintf("must be at most %d characters", RemarksMaxLen))
	}
}

// CheckMoney records a violation when amount does not fit a decimal(15,2)
// column. Zero is accepted unless positive is set.
func CheckMoney(v Violations, field string, amount float64, positive bool) {
	switch {
	case positive && amount < MoneyMin:
		v.Add(field, fmt.Sprintf("must be at least %.2f", MoneyMin))
	case amount < 0:
		v.Add(field, "must not be negative")
	case amount >= MoneyLimit:
		v.Add(field, fmt.Sprintf("must be less than %.0f", MoneyLimit))
	case decimalPlaces(amount) > MoneyScale:
		v.Add(field, fmt.Sprintf("must have at most %d decimal places", MoneyScale))
	}
}

// decimalPlaces counts fraction digits in the shortest representation of f
func decimalPlaces(f float64) int {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
