package models

import (
	"fmt"
	"time"

	"insurehub/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Identity Tables
// ============================================================

// User represents users table
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email       string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password    string         `gorm:"size:255;not null" json:"-"`
	FullName    *string        `gorm:"size:100" json:"full_name"`
	PhoneNumber *string        `gorm:"size:20" json:"phone_number"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Roles []Role `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// RoleSet returns the typed role set of the user (roles must be preloaded)
func (u *User) RoleSet() domain.RoleSet {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r.IsActive {
			names = append(names, r.Name)
		}
	}
	return domain.ParseRoleSet(names)
}

// Actor returns the domain actor for this user
func (u *User) Actor() domain.Actor {
	return domain.Actor{UserID: u.ID, Roles: u.RoleSet()}
}

// UserResponse DTO
type UserResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	Roles       []string   `json:"roles"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	resp := &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Roles:       u.RoleSet().Names(),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.FullName != nil {
		resp.FullName = *u.FullName
	}
	if u.PhoneNumber != nil {
		resp.PhoneNumber = *u.PhoneNumber
	}
	return resp
}

// Role represents roles table
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Role) TableName() string {
	return "roles"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Workflow Tables
// ============================================================

// Policy represents insurance_policies table
type Policy struct {
	ID                     uint           `gorm:"primaryKey"`
	PolicyNumber           string         `gorm:"size:30;uniqueIndex;not null"`
	UserID                 uint           `gorm:"not null;index"`
	PolicyHolderName       string         `gorm:"size:100;not null"`
	InsuranceType          string         `gorm:"size:50;not null"`
	CoverageAmount         float64        `gorm:"type:decimal(15,2);not null"`
	Premium                float64        `gorm:"type:decimal(15,2);not null"`
	StartDate              time.Time      `gorm:"not null"`
	EndDate                time.Time      `gorm:"not null"`
	ApplicationDescription string         `gorm:"type:text;not null"`
	ApplicationDate        time.Time      `gorm:"not null;index"`
	Status                 string         `gorm:"size:20;not null;default:'Pending';index"`
	ReviewedByAdminID      *uint
	ReviewedAt             *time.Time
	AdminRemarks           *string        `gorm:"type:text"`
	CreatedAt              time.Time      `gorm:"autoCreateTime"`
	UpdatedAt              time.Time      `gorm:"autoUpdateTime"`
	DeletedAt              gorm.DeletedAt `gorm:"index"`
}

func (Policy) TableName() string {
	return "insurance_policies"
}

// NewPolicyRow maps a domain policy to its row
func NewPolicyRow(p *domain.Policy) *Policy {
	row := &Policy{
		ID:                     p.ID,
		PolicyNumber:           p.Number,
		UserID:                 p.OwnerID,
		PolicyHolderName:       p.HolderName,
		InsuranceType:          p.InsuranceType,
		CoverageAmount:         p.Coverage,
		Premium:                p.Premium,
		StartDate:              p.StartDate,
		EndDate:                p.EndDate,
		ApplicationDescription: p.Description,
		ApplicationDate:        p.AppliedAt,
		Status:                 p.Status.String(),
	}
	row.ReviewedByAdminID, row.ReviewedAt, row.AdminRemarks = reviewColumns(p.Review)
	return row
}

// ToDomain maps the row to a domain policy
func (m *Policy) ToDomain() (*domain.Policy, error) {
	status, ok := domain.ParsePolicyStatus(m.Status)
	if !ok {
		return nil, fmt.Errorf("policy %d: unknown status %q", m.ID, m.Status)
	}
	return &domain.Policy{
		ID:            m.ID,
		OwnerID:       m.UserID,
		Number:        m.PolicyNumber,
		HolderName:    m.PolicyHolderName,
		InsuranceType: m.InsuranceType,
		Coverage:      m.CoverageAmount,
		Premium:       m.Premium,
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		Description:   m.ApplicationDescription,
		Status:        status,
		AppliedAt:     m.ApplicationDate,
		Review:        reviewFromColumns(m.ReviewedByAdminID, m.ReviewedAt, m.AdminRemarks),
	}, nil
}

// Claim represents claims table
type Claim struct {
	ID                uint           `gorm:"primaryKey"`
	InsurancePolicyID uint           `gorm:"not null;index"`
	UserID            uint           `gorm:"not null;index"`
	ClaimNumber       string         `gorm:"size:30;uniqueIndex;not null"`
	Description       string         `gorm:"type:text;not null"`
	ClaimAmount       float64        `gorm:"type:decimal(15,2);not null"`
	IncidentDate      time.Time      `gorm:"not null"`
	SubmittedAt       time.Time      `gorm:"not null;index"`
	Status            string         `gorm:"size:20;not null;default:'Submitted';index"`
	ReviewedByAdminID *uint
	ReviewedAt        *time.Time
	AdminRemarks      *string        `gorm:"type:text"`
	SettledAmount     *float64       `gorm:"type:decimal(15,2)"`
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (Claim) TableName() string {
	return "claims"
}

// NewClaimRow maps a domain claim to its row
func NewClaimRow(c *domain.Claim) *Claim {
	row := &Claim{
		ID:                c.ID,
		InsurancePolicyID: c.PolicyID,
		UserID:            c.FilerID,
		ClaimNumber:       c.Number,
		Description:       c.Description,
		ClaimAmount:       c.Amount,
		IncidentDate:      c.IncidentDate,
		SubmittedAt:       c.SubmittedAt,
		Status:            c.Status.String(),
		SettledAmount:     c.SettledAmount,
	}
	row.ReviewedByAdminID, row.ReviewedAt, row.AdminRemarks = reviewColumns(c.Review)
	return row
}

// ToDomain maps the row to a domain claim
func (m *Claim) ToDomain() (*domain.Claim, error) {
	status, ok := domain.ParseClaimStatus(m.Status)
	if !ok {
		return nil, fmt.Errorf("claim %d: unknown status %q", m.ID, m.Status)
	}
	return &domain.Claim{
		ID:            m.ID,
		PolicyID:      m.InsurancePolicyID,
		FilerID:       m.UserID,
		Number:        m.ClaimNumber,
		Description:   m.Description,
		Amount:        m.ClaimAmount,
		IncidentDate:  m.IncidentDate,
		Status:        status,
		SubmittedAt:   m.SubmittedAt,
		SettledAmount: m.SettledAmount,
		Review:        reviewFromColumns(m.ReviewedByAdminID, m.ReviewedAt, m.AdminRemarks),
	}, nil
}

func reviewColumns(r *domain.Review) (*uint, *time.Time, *string) {
	if r == nil {
		return nil, nil, nil
	}
	reviewer, at := r.ReviewerID, r.ReviewedAt
	var remarks *string
	if r.Remarks != "" {
		s := r.Remarks
		remarks = &s
	}
	return &reviewer, &at, remarks
}

func reviewFromColumns(reviewer *uint, at *time.Time, remarks *string) *domain.Review {
	if reviewer == nil || at == nil {
		return nil
	}
	r := &domain.Review{ReviewerID: *reviewer, ReviewedAt: *at}
	if remarks != nil {
		r.Remarks = *remarks
	}
	return r
}

// ============================================================
// Response DTOs
// ============================================================

// ReviewResponse DTO
type ReviewResponse struct {
	ReviewedBy uint      `json:"reviewed_by"`
	ReviewedAt time.Time `json:"reviewed_at"`
	Remarks    string    `json:"remarks,omitempty"`
}

// PolicyResponse DTO
type PolicyResponse struct {
	ID                     uint            `json:"id"`
	PolicyNumber           string          `json:"policy_number"`
	UserID                 uint            `json:"user_id"`
	PolicyHolderName       string          `json:"policy_holder_name"`
	InsuranceType          string          `json:"insurance_type"`
	CoverageAmount         float64         `json:"coverage_amount"`
	Premium                float64         `json:"premium"`
	StartDate              string          `json:"start_date"`
	EndDate                string          `json:"end_date"`
	ApplicationDescription string          `json:"application_description"`
	ApplicationDate        time.Time       `json:"application_date"`
	Status                 string          `json:"status"`
	Review                 *ReviewResponse `json:"review,omitempty"`
}

// NewPolicyResponse builds the API view of a policy
func NewPolicyResponse(p *domain.Policy) *PolicyResponse {
	return &PolicyResponse{
		ID:                     p.ID,
		PolicyNumber:           p.Number,
		UserID:                 p.OwnerID,
		PolicyHolderName:       p.HolderName,
		InsuranceType:          p.InsuranceType,
		CoverageAmount:         p.Coverage,
		Premium:                p.Premium,
		StartDate:              p.StartDate.Format(DateLayout),
		EndDate:                p.EndDate.Format(DateLayout),
		ApplicationDescription: p.Description,
		ApplicationDate:        p.AppliedAt,
		Status:                 p.Status.String(),
		Review:                 newReviewResponse(p.Review),
	}
}

// ClaimResponse DTO
type ClaimResponse struct {
	ID                uint            `json:"id"`
	ClaimNumber       string          `json:"claim_number"`
	InsurancePolicyID uint            `json:"insurance_policy_id"`
	PolicyNumber      string          `json:"policy_number,omitempty"`
	PolicyType        string          `json:"policy_type,omitempty"`
	UserID            uint            `json:"user_id"`
	UserName          string          `json:"user_name,omitempty"`
	Description       string          `json:"description"`
	ClaimAmount       float64         `json:"claim_amount"`
	IncidentDate      string          `json:"incident_date"`
	SubmittedAt       time.Time       `json:"submitted_at"`
	Status            string          `json:"status"`
	SettledAmount     *float64        `json:"settled_amount,omitempty"`
	Review            *ReviewResponse `json:"review,omitempty"`
}

// NewClaimResponse builds the API view of a claim
func NewClaimResponse(c *domain.Claim) *ClaimResponse {
	return &ClaimResponse{
		ID:                c.ID,
		ClaimNumber:       c.Number,
		InsurancePolicyID: c.PolicyID,
		PolicyNumber:      c.PolicyNumber,
		PolicyType:        c.PolicyType,
		UserID:            c.FilerID,
		UserName:          c.FilerName,
		Description:       c.Description,
		ClaimAmount:       c.Amount,
		IncidentDate:      c.IncidentDate.Format(DateLayout),
		SubmittedAt:       c.SubmittedAt,
		Status:            c.Status.String(),
		SettledAmount:     c.SettledAmount,
		Review:            newReviewResponse(c.Review),
	}
}

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

func newReviewResponse(r *domain.Review) *ReviewResponse {
	if r == nil {
		return nil
	}
	return &ReviewResponse{ReviewedBy: r.ReviewerID, ReviewedAt: r.ReviewedAt, Remarks: r.Remarks}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Role{},
		&User{},
		&RefreshToken{},
		&Policy{},
		&Claim{},
	)
}
