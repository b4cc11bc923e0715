package repositories

import (
	"context"
	"errors"
	"time"

	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/core/domain"

	"gorm.io/gorm"
)

// claimRepository implements ClaimRepository interface
type claimRepository struct {
	db *gorm.DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

// Create inserts the claim and assigns its ID
func (r *claimRepository) Create(ctx context.Context, claim *domain.Claim) error {
	row := models.NewClaimRow(claim)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateNumber
		}
		return err
	}
	claim.ID = row.ID
	return nil
}

// GetByID gets a claim by ID
func (r *claimRepository) GetByID(ctx context.Context, id uint) (*domain.Claim, error) {
	var row models.Claim
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	claim, err := row.ToDomain()
	if err != nil {
		return nil, err
	}
	if err := r.resolveReferences(ctx, []*domain.Claim{claim}); err != nil {
		return nil, err
	}
	return claim, nil
}

// List lists claims matching the query
func (r *claimRepository) List(ctx context.Context, q ClaimQuery) ([]*domain.Claim, error) {
	tx := r.scoped(ctx, q.FilerID)
	if q.PolicyID != nil {
		tx = tx.Where("insurance_policy_id = ?", *q.PolicyID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", q.Status.String())
	}

	var rows []models.Claim
	if err := tx.Order("submitted_at DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	claims := make([]*domain.Claim, 0, len(rows))
	for i := range rows {
		c, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	if err := r.resolveReferences(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// UpdateDetailsIfStatus writes the filer-editable columns guarded by the expected status
func (r *claimRepository) UpdateDetailsIfStatus(ctx context.Context, claim *domain.Claim, expected domain.ClaimStatus) error {
	row := models.NewClaimRow(claim)
	return r.updateIfStatus(ctx, claim.ID, expected, map[string]interface{}{
		"description":   row.Description,
		"claim_amount":  row.ClaimAmount,
		"incident_date": row.IncidentDate,
	})
}

// TransitionIfStatus writes status, review and settlement columns guarded by
// the expected status. Filer-editable columns are left alone.
func (r *claimRepository) TransitionIfStatus(ctx context.Context, claim *domain.Claim, expected domain.ClaimStatus) error {
	row := models.NewClaimRow(claim)
	return r.updateIfStatus(ctx, claim.ID, expected, map[string]interface{}{
		"status":               row.Status,
		"reviewed_by_admin_id": row.ReviewedByAdminID,
		"reviewed_at":          row.ReviewedAt,
		"admin_remarks":        row.AdminRemarks,
		"settled_amount":       row.SettledAmount,
	})
}

func (r *claimRepository) updateIfStatus(ctx context.Context, id uint, expected domain.ClaimStatus, columns map[string]interface{}) error {
	columns["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Claim{ID: id}).
		Where("status = ?", expected.String()).
		Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// DeleteIfStatus soft deletes the claim, guarded by the expected status when given
func (r *claimRepository) DeleteIfStatus(ctx context.Context, id uint, expected *domain.ClaimStatus) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id)
	if expected != nil {
		tx = tx.Where("status = ?", expected.String())
	}
	res := tx.Delete(&models.Claim{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// CountByStatus counts claims per status, optionally for one filer
func (r *claimRepository) CountByStatus(ctx context.Context, filerID *uint) (map[domain.ClaimStatus]int64, error) {
	var rows []statusCount
	if err := r.scoped(ctx, filerID).Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[domain.ClaimStatus]int64)
	for _, row := range rows {
		if s, ok := domain.ParseClaimStatus(row.Status); ok {
			counts[s] = row.Total
		}
	}
	return counts, nil
}

// Totals sums claimed and settled amounts, optionally for one filer
func (r *claimRepository) Totals(ctx context.Context, filerID *uint) (*ClaimTotals, error) {
	var totals ClaimTotals
	err := r.scoped(ctx, filerID).
		Select("COALESCE(SUM(claim_amount), 0) AS claimed, COALESCE(SUM(settled_amount), 0) AS settled").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// resolveReferences fills policy number, policy type and filer name
func (r *claimRepository) resolveReferences(ctx context.Context, claims []*domain.Claim) error {
	if len(claims) == 0 {
		return nil
	}
	policyIDs := make([]uint, 0, len(claims))
	userIDs := make([]uint, 0, len(claims))
	for _, c := range claims {
		policyIDs = append(policyIDs, c.PolicyID)
		userIDs = append(userIDs, c.FilerID)
	}

	var policies []models.Policy
	if err := r.db.WithContext(ctx).Unscoped().
		Select("id", "policy_number", "insurance_type").
		Where("id IN ?", policyIDs).
		Find(&policies).Error; err != nil {
		return err
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Unscoped().
		Select("id", "username").
		Where("id IN ?", userIDs).
		Find(&users).Error; err != nil {
		return err
	}

	byPolicy := make(map[uint]*models.Policy, len(policies))
	for i := range policies {
		byPolicy[policies[i].ID] = &policies[i]
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	for _, c := range claims {
		if p, ok := byPolicy[c.PolicyID]; ok {
			c.PolicyNumber = p.PolicyNumber
			c.PolicyType = p.InsuranceType
		}
		c.FilerName = names[c.FilerID]
	}
	return nil
}

func (r *claimRepository) scoped(ctx context.Context, filerID *uint) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Claim{})
	if filerID != nil {
		tx = tx.Where("user_id = ?", *filerID)
	}
	return tx
}
