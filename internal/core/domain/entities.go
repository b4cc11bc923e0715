package domain

import (
	"strings"
	"time"
)

// Role represents a user role in the system
type Role uint8

const (
	RoleAdmin Role = 1 << iota
	RoleUser
	RoleManager
)

// AllRoles lists every known role in display order
var AllRoles = []Role{RoleAdmin, RoleUser, RoleManager}

// String returns the stable persisted code of the role
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleUser:
		return "User"
	case RoleManager:
		return "Manager"
	}
	return ""
}

// ParseRole parses a persisted role code. Matching is exact (case-insensitive);
// names such as "SubAdmin" are not roles.
func ParseRole(s string) (Role, bool) {
	for _, r := range AllRoles {
		if strings.EqualFold(strings.TrimSpace(s), r.String()) {
			return r, true
		}
	}
	return 0, false
}

// RoleSet is a set of roles
type RoleSet uint8

// NewRoleSet builds a set from roles
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s |= RoleSet(r)
	}
	return s
}

// ParseRoleSet builds a set from role codes, skipping unknown names
func ParseRoleSet(names []string) RoleSet {
	var s RoleSet
	for _, n := range names {
		if r, ok := ParseRole(n); ok {
			s |= RoleSet(r)
		}
	}
	return s
}

// Has reports set membership
func (s RoleSet) Has(r Role) bool {
	return s&RoleSet(r) != 0
}

// IsEmpty reports whether the set holds no role
func (s RoleSet) IsEmpty() bool {
	return s == 0
}

// Names returns the role codes in the set
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(AllRoles))
	for _, r := range AllRoles {
		if s.Has(r) {
			names = append(names, r.String())
		}
	}
	return names
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID uint
	Roles  RoleSet
}

// IsAdmin reports whether the actor holds the Admin role
func (a Actor) IsAdmin() bool {
	return a.Roles.Has(RoleAdmin)
}

// PolicyStatus is the lifecycle state of a policy
type PolicyStatus uint8

const (
	PolicyPending PolicyStatus = iota + 1
	PolicyApproved
	PolicyDenied
	PolicyCancelled
)

func (s PolicyStatus) String() string {
	switch s {
	case PolicyPending:
		return "Pending"
	case PolicyApproved:
		return "Approved"
	case PolicyDenied:
		return "Denied"
	case PolicyCancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// ParsePolicyStatus parses a persisted policy status code
func ParsePolicyStatus(s string) (PolicyStatus, bool) {
	for _, st := range []PolicyStatus{PolicyPending, PolicyApproved, PolicyDenied, PolicyCancelled} {
		if strings.EqualFold(s, st.String()) {
			return st, true
		}
	}
	return 0, false
}

// ClaimStatus is the lifecycle state of a claim
type ClaimStatus uint8

const (
	ClaimSubmitted ClaimStatus = iota + 1
	ClaimUnderReview
	ClaimApproved
	ClaimDenied
	ClaimSettled
)

func (s ClaimStatus) String() string {
	switch s {
	case ClaimSubmitted:
		return "Submitted"
	case ClaimUnderReview:
		return "UnderReview"
	case ClaimApproved:
		return "Approved"
	case ClaimDenied:
		return "Denied"
	case ClaimSettled:
		return "Settled"
	}
	return "Unknown"
}

// ParseClaimStatus parses a persisted claim status code
func ParseClaimStatus(s string) (ClaimStatus, bool) {
	for _, st := range []ClaimStatus{ClaimSubmitted, ClaimUnderReview, ClaimApproved, ClaimDenied, ClaimSettled} {
		if strings.EqualFold(s, st.String()) {
			return st, true
		}
	}
	return 0, false
}

// IsTerminal reports whether no transition leaves this status
func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimDenied || s == ClaimSettled
}

// Review holds reviewer metadata stamped by a review or cancel action
type Review struct {
	ReviewerID uint
	ReviewedAt time.Time
	Remarks    string
}

// Policy is an insurance coverage application/contract
type Policy struct {
	ID            uint
	OwnerID       uint
	Number        string
	HolderName    string
	InsuranceType string
	Coverage      float64
	Premium       float64
	StartDate     time.Time
	EndDate       time.Time
	Description   string
	Status        PolicyStatus
	AppliedAt     time.Time
	Review        *Review
}

// Owner returns the owning user id
func (p *Policy) Owner() uint { return p.OwnerID }

// CurrentStatus returns the policy status
func (p *Policy) CurrentStatus() PolicyStatus { return p.Status }

// Claim is a request for payout against an approved policy
type Claim struct {
	ID            uint
	PolicyID      uint
	FilerID       uint
	Number        string
	Description   string
	Amount        float64
	IncidentDate  time.Time
	Status        ClaimStatus
	SubmittedAt   time.Time
	SettledAmount *float64
	Review        *Review

	// read-only references resolved on load
	PolicyNumber string
	PolicyType   string
	FilerName    string
}

// Owner returns the filing user id
func (c *Claim) Owner() uint { return c.FilerID }

// CurrentStatus returns the claim status
func (c *Claim) CurrentStatus() ClaimStatus { return c.Status }
