// Package stats is the read side of the lifecycle engine: it derives
// platform-wide counts from the current status distributions of the three
// state machines. It never mutates anything; callers that need certainty
// after a mutation re-query rather than relying on push updates.
package stats

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	adoptermodels "homeward/internal/adopter/models"
	appmodels "homeward/internal/application/models"
	orgmodels "homeward/internal/organization/models"
	dErrors "homeward/pkg/domain-errors"
)

// AdopterCounter reports the adopter standing distribution.
type AdopterCounter interface {
	CountByStatus(ctx context.Context) (map[adoptermodels.StandingStatus]int, error)
}

// OrganizationCounter reports the verification distribution.
type OrganizationCounter interface {
	CountByStatus(ctx context.Context) (map[orgmodels.VerificationStatus]int, error)
}

// ApplicationCounter reports the application status distribution.
type ApplicationCounter interface {
	CountByStatus(ctx context.Context) (map[appmodels.Status]int, error)
}

// Stats is a committed snapshot of the platform's status distributions.
type Stats struct {
	TotalUsers            int            `json:"total_users"`
	Adopters              int            `json:"adopters"`
	Organizations         int            `json:"organizations"`
	AdoptersActive        int            `json:"adopters_active"`
	AdoptersSuspended     int            `json:"adopters_suspended"`
	PendingOrganizations  int            `json:"pending_organizations"`
	VerifiedOrganizations int            `json:"verified_organizations"`
	RejectedOrganizations int            `json:"rejected_organizations"`
	ApplicationsByStatus  map[string]int `json:"applications_by_status"`
	ComputedAt            time.Time      `json:"computed_at"`
}

// Cache is a read-through cache for computed snapshots. Implemented by the
// redis cache; nil-safe usage is the caller's concern.
type Cache interface {
	Get(ctx context.Context) (*Stats, bool)
	Set(ctx context.Context, stats *Stats)
}

// Service computes stats snapshots.
type Service struct {
	adopters      AdopterCounter
	organizations OrganizationCounter
	applications  ApplicationCounter
	cache         Cache
	logger        *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCache wires a snapshot cache. Cached snapshots may be slightly stale;
// the TTL bounds the staleness.
func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func New(adopters AdopterCounter, organizations OrganizationCounter, applications ApplicationCounter, opts ...Option) *Service {
	s := &Service{
		adopters:      adopters,
		organizations: organizations,
		applications:  applications,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeStats derives the current distribution snapshot. The three count
// queries are independent and run concurrently.
func (s *Service) ComputeStats(ctx context.Context) (*Stats, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx); ok {
			return cached, nil
		}
	}

	var (
		adopterCounts map[adoptermodels.StandingStatus]int
		orgCounts     map[orgmodels.VerificationStatus]int
		appCounts     map[appmodels.Status]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		adopterCounts, err = s.adopters.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orgCounts, err = s.organizations.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		appCounts, err = s.applications.CountByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute stats")
	}

	adopters := adopterCounts[adoptermodels.StandingActive] + adopterCounts[adoptermodels.StandingSuspended]
	organizations := 0
	for _, n := range orgCounts {
		organizations += n
	}
	applications := make(map[string]int, len(appCounts))
	for status, n := range appCounts {
		applications[status.String()] = n
	}

	stats := &Stats{
		TotalUsers:            adopters + organizations,
		Adopters:              adopters,
		Organizations:         organizations,
		AdoptersActive:        adopterCounts[adoptermodels.StandingActive],
		AdoptersSuspended:     adopterCounts[adoptermodels.StandingSuspended],
		PendingOrganizations:  orgCounts[orgmodels.VerificationPending],
		VerifiedOrganizations: orgCounts[orgmodels.VerificationVerified],
		RejectedOrganizations: orgCounts[orgmodels.VerificationRejected],
		ApplicationsByStatus:  applications,
		ComputedAt:            time.Now().UTC(),
	}

	if s.cache != nil {
		s.cache.Set(ctx, stats)
	}
	return stats, nil
}
