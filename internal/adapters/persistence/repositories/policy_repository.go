package repositories

import (
	"context"
	"errors"
	"time"

	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/core/domain"

	"gorm.io/gorm"
)

// policyRepository implements PolicyRepository interface
type policyRepository struct {
	db *gorm.DB
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{db: db}
}

// Create inserts the policy and assigns its ID
func (r *policyRepository) Create(ctx context.Context, policy *domain.Policy) error {
	row := models.NewPolicyRow(policy)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateNumber
		}
		return err
	}
	policy.ID = row.ID
	return nil
}

// GetByID gets a policy by ID
func (r *policyRepository) GetByID(ctx context.Context, id uint) (*domain.Policy, error) {
	var row models.Policy
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

// List lists policies matching the query
func (r *policyRepository) List(ctx context.Context, q PolicyQuery) ([]*domain.Policy, error) {
	tx := r.db.WithContext(ctx).Model(&models.Policy{})
	if q.OwnerID != nil {
		tx = tx.Where("user_id = ?", *q.OwnerID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", q.Status.String())
	}

	var rows []models.Policy
	if err := tx.Order("application_date DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	policies := make([]*domain.Policy, 0, len(rows))
	for i := range rows {
		p, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, nil
}

// UpdateIfStatus writes status and review columns guarded by the expected status
func (r *policyRepository) UpdateIfStatus(ctx context.Context, policy *domain.Policy, expected domain.PolicyStatus) error {
	row := models.NewPolicyRow(policy)
	res := r.db.WithContext(ctx).
		Model(&models.Policy{ID: policy.ID}).
		Where("status = ?", expected.String()).
		Updates(map[string]interface{}{
			"status":               row.Status,
			"reviewed_by_admin_id": row.ReviewedByAdminID,
			"reviewed_at":          row.ReviewedAt,
			"admin_remarks":        row.AdminRemarks,
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// Delete soft deletes the policy and every claim filed against it
func (r *policyRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Policy{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("insurance_policy_id = ?", id).Delete(&models.Claim{}).Error
	})
}

// CountByStatus counts policies per status, optionally for one owner
func (r *policyRepository) CountByStatus(ctx context.Context, ownerID *uint) (map[domain.PolicyStatus]int64, error) {
	var rows []statusCount
	tx := r.db.WithContext(ctx).Model(&models.Policy{})
	if ownerID != nil {
		tx = tx.Where("user_id = ?", *ownerID)
	}
	if err := tx.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[domain.PolicyStatus]int64)
	for _, row := range rows {
		if s, ok := domain.ParsePolicyStatus(row.Status); ok {
			counts[s] = row.Total
		}
	}
	return counts, nil
}

type statusCount struct {
	Status string
	Total  int64
}
