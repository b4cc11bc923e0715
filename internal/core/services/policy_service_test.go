package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/core/domain"
	"insurehub/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	f := newFixture(t)

	p, err := f.policies.Apply(context.Background(), userA, validPolicyInput())
	require.NoError(t, err)

	assert.NotZero(t, p.ID)
	assert.Equal(t, userA.UserID, p.OwnerID)
	assert.Equal(t, domain.PolicyPending, p.Status)
	assert.Nil(t, p.Review)
	assert.True(t, domain.ValidNumber(domain.PolicyNumberPrefix, p.Number), p.Number)
	assert.Contains(t, p.Number, "POL-20260101-")
}

func TestApply_Validation(t *testing.T) {
	f := newFixture(t)

	in := validPolicyInput()
	in.Coverage = -1
	in.Premium = -5
	in.EndDate = in.StartDate.AddDate(0, 0, -1)
	in.Description = "too short"

	_, err := f.policies.Apply(context.Background(), userA, in)
	require.ErrorIs(t, err, domain.ErrValidation)

	e, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Len(t, e.Fields, 4)

	list, err := f.policies.ListFor(context.Background(), admin, nil)
	require.NoError(t, err)
	assert.Empty(t, list, "nothing persisted on validation failure")
}

func TestApply_NumbersDistinct(t *testing.T) {
	f := newFixture(t)
	seen := map[string]bool{}

	for i := 0; i < 40; i++ {
		p, err := f.policies.Apply(context.Background(), userA, validPolicyInput())
		require.NoError(t, err)
		assert.False(t, seen[p.Number], "duplicate number %s", p.Number)
		seen[p.Number] = true
	}
}

type collidingPolicies struct {
	repositories.PolicyRepository
	collisions int
	attempts   int
}

func (c *collidingPolicies) Create(ctx context.Context, p *domain.Policy) error {
	c.attempts++
	if c.collisions > 0 {
		c.collisions--
		return repositories.ErrDuplicateNumber
	}
	return c.PolicyRepository.Create(ctx, p)
}

func TestApply_RetriesNumberCollision(t *testing.T) {
	repo := &collidingPolicies{PolicyRepository: repositories.NewPolicyRepository(testdb.Open(t)), collisions: 2}
	svc := NewPolicyService(repo)

	p, err := svc.Apply(context.Background(), userA, validPolicyInput())
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, 3, repo.attempts)

	repo.collisions, repo.attempts = maxNumberAttempts, 0
	_, err = svc.Apply(context.Background(), userA, validPolicyInput())
	assert.ErrorIs(t, err, repositories.ErrDuplicateNumber)
	assert.Equal(t, maxNumberAttempts, repo.attempts)
}

func TestReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.policyIn(t, userA, domain.PolicyPending)

	_, err := f.policies.Review(ctx, userA, p.ID, DecisionApprove, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.policies.Review(ctx, admin, p.ID+999, DecisionApprove, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	reviewed, err := f.policies.Review(ctx, admin, p.ID, DecisionApprove, "  looks good ")
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyApproved, reviewed.Status)
	require.NotNil(t, reviewed.Review)
	assert.Equal(t, admin.UserID, reviewed.Review.ReviewerID)
	assert.Equal(t, "looks good", reviewed.Review.Remarks)

	stored, err := f.policies.Get(ctx, userA, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyApproved, stored.Status)
	require.NotNil(t, stored.Review)
	assert.Equal(t, "looks good", stored.Review.Remarks)
}

func TestReview_OnlyFromPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, status := range []domain.PolicyStatus{domain.PolicyApproved, domain.PolicyDenied, domain.PolicyCancelled} {
		t.Run(status.String(), func(t *testing.T) {
			p := f.policyIn(t, userA, status)
			for _, d := range []PolicyDecision{DecisionApprove, DecisionDeny} {
				_, err := f.policies.Review(ctx, admin, p.ID, d, "")
				require.ErrorIs(t, err, domain.ErrInvalidTransition)

				e, _ := domain.AsError(err)
				assert.Equal(t, status.String(), e.Status)
				assert.Equal(t, "review", e.Action)
			}

			stored, err := f.policies.Get(ctx, admin, p.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status, "state unchanged by rejected review")
		})
	}
}

func TestReview_RemarksTooLong(t *testing.T) {
	f := newFixture(t)
	p := f.policyIn(t, userA, domain.PolicyPending)

	long := make([]rune, domain.RemarksMaxLen+1)
	for i := range long {
		long[i] = 'r'
	}
	_, err := f.policies.Review(context.Background(), admin, p.ID, DecisionDeny, string(long))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReview_ConcurrentExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.policyIn(t, userA, domain.PolicyPending)

	const reviewers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < reviewers; i++ {
		decision := DecisionApprove
		if i%2 == 1 {
			decision = DecisionDeny
		}
		wg.Add(1)
		go func(d PolicyDecision) {
			defer wg.Done()
			_, err := f.policies.Review(ctx, admin, p.ID, d, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if assert.ErrorIs(t, err, domain.ErrInvalidTransition) {
				conflicts++
			}
		}(decision)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, reviewers-1, conflicts)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("owner cancels pending", func(t *testing.T) {
		p := f.policyIn(t, userA, domain.PolicyPending)
		got, err := f.policies.Cancel(ctx, userA, p.ID, "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, domain.PolicyCancelled, got.Status)
		require.NotNil(t, got.Review)
		assert.Equal(t, userA.UserID, got.Review.ReviewerID)
	})

	t.Run("owner cannot cancel approved", func(t *testing.T) {
		p := f.policyIn(t, userA, domain.PolicyApproved)
		_, err := f.policies.Cancel(ctx, userA, p.ID, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("other user forbidden", func(t *testing.T) {
		p := f.policyIn(t, userA, domain.PolicyPending)
		_, err := f.policies.Cancel(ctx, userB, p.ID, "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("admin cancels approved", func(t *testing.T) {
		p := f.policyIn(t, userA, domain.PolicyApproved)
		got, err := f.policies.Cancel(ctx, admin, p.ID, "fraud")
		require.NoError(t, err)
		assert.Equal(t, domain.PolicyCancelled, got.Status)
	})

	t.Run("cancelled and denied are terminal", func(t *testing.T) {
		for _, status := range []domain.PolicyStatus{domain.PolicyCancelled, domain.PolicyDenied} {
			p := f.policyIn(t, userA, status)
			_, err := f.policies.Cancel(ctx, admin, p.ID, "")
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			_, err = f.policies.Review(ctx, admin, p.ID, DecisionApprove, "")
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		}
	})
}

func TestGetPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.policyIn(t, userA, domain.PolicyPending)

	_, err := f.policies.Get(ctx, userA, p.ID)
	assert.NoError(t, err)
	_, err = f.policies.Get(ctx, admin, p.ID)
	assert.NoError(t, err)
	_, err = f.policies.Get(ctx, userB, p.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.policies.Get(ctx, userA, p.ID+999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPolicies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a1 := f.policyIn(t, userA, domain.PolicyPending)
	b1 := f.policyIn(t, userB, domain.PolicyApproved)
	a2 := f.policyIn(t, userA, domain.PolicyApproved)

	all, err := f.policies.ListFor(ctx, admin, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{a2.ID, b1.ID, a1.ID}, policyIDs(all))

	mine, err := f.policies.ListFor(ctx, userA, nil)
	require.NoError(t, err)
	for _, p := range mine {
		assert.Equal(t, userA.UserID, p.OwnerID)
	}
	assert.Equal(t, []uint{a2.ID, a1.ID}, policyIDs(mine))

	approved := domain.PolicyApproved
	filtered, err := f.policies.ListFor(ctx, userA, &approved)
	require.NoError(t, err)
	assert.Equal(t, []uint{a2.ID}, policyIDs(filtered))

	stranger := domain.Actor{UserID: 99, Roles: domain.NewRoleSet(domain.RoleManager)}
	none, err := f.policies.ListFor(ctx, stranger, nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListPolicies_TieBreakByID(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	svc := NewPolicyService(repositories.NewPolicyRepository(db)).
		WithClock(fixedClock(time.Date(2026, 5, 5, 12, 0, 0, 0, time.UTC)))

	var ids []uint
	for i := 0; i < 4; i++ {
		p, err := svc.Apply(ctx, userA, validPolicyInput())
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	list, err := svc.ListFor(ctx, userA, nil)
	require.NoError(t, err)
	assert.Equal(t, ids, policyIDs(list))
}

func TestDeletePolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.claimIn(t, userA, domain.ClaimSubmitted)

	err := f.policies.Delete(ctx, userA, c.PolicyID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.policies.Delete(ctx, admin, c.PolicyID))

	_, err = f.policies.Get(ctx, admin, c.PolicyID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.claims.Get(ctx, admin, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.policies.Delete(ctx, admin, c.PolicyID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParsePolicyDecision(t *testing.T) {
	d, ok := ParsePolicyDecision("Approve")
	assert.True(t, ok)
	assert.Equal(t, DecisionApprove, d)

	d, ok = ParsePolicyDecision(" denied ")
	assert.True(t, ok)
	assert.Equal(t, DecisionDeny, d)

	_, ok = ParsePolicyDecision("maybe")
	assert.False(t, ok)
}

func policyIDs(ps []*domain.Policy) []uint {
	ids := make([]uint, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}
