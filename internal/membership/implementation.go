// internal/membership/implementation.go
package membership

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/port"
)

// service implements the Service interface.
type service struct {
	uow port.UnitOfWork
	log *logger.Logger
	now func() time.Time

	meterProvider metric.MeterProvider
	closed        metric.Int64Counter
}

type Option func(*service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithMeterProvider records the batch counter into mp instead of the
// global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *service) { s.meterProvider = mp }
}

// NewService creates a new membership service instance.
func NewService(uow port.UnitOfWork, log *logger.Logger, opts ...Option) (Service, error) {
	s := &service{
		uow:           uow,
		log:           log.With("service", "membership"),
		now:           time.Now,
		meterProvider: otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}

	closed, err := s.meterProvider.Meter("storefront/membership").Int64Counter("storefront.memberships.quarter_closed",
		metric.WithDescription("Memberships processed by quarter close"))
	if err != nil {
		return nil, fmt.Errorf("meter.Int64Counter: %w", err)
	}
	s.closed = closed
	return s, nil
}

func (s *service) Join(ctx context.Context, cmd JoinCommand) (domain.Member, error) {
	member, err := domain.NewMember(cmd.Username, cmd.Name, cmd.Address, s.now().UTC())
	if err != nil {
		return domain.Member{}, err
	}

	err = s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) error {
		if err := r.Members().Create(ctx, member); err != nil {
			return fmt.Errorf("r.Members().Create: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Member{}, err
	}

	s.log.Info("member joined", "member_id", member.ID, "username", member.Username)
	return member, nil
}

func (s *service) GetMember(ctx context.Context, id uuid.UUID) (domain.Member, error) {
	var member domain.Member
	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) (err error) {
		member, err = r.Members().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("r.Members().Get: %w", err)
		}
		return nil
	})
	return member, err
}

func (s *service) GetMemberByUsername(ctx context.Context, username string) (domain.Member, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Member{}, domain.InvalidArgument("username is required")
	}

	var member domain.Member
	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) (err error) {
		member, err = r.Members().GetByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("r.Members().GetByUsername: %w", err)
		}
		return nil
	})
	return member, err
}

func (s *service) ListMembers(ctx context.Context, page domain.PageRequest) ([]domain.Member, error) {
	if err := page.Validate(domain.SortByID, domain.SortByUsername); err != nil {
		return nil, err
	}

	var members []domain.Member
	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) (err error) {
		members, err = r.Members().List(ctx, page)
		if err != nil {
			return fmt.Errorf("r.Members().List: %w", err)
		}
		return nil
	})
	return members, err
}

func (s *service) Withdraw(ctx context.Context, memberID uuid.UUID) error {
	var already bool
	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) error {
		m, err := r.Memberships().LockByMemberID(ctx, memberID)
		if err != nil {
			return fmt.Errorf("r.Memberships().LockByMemberID: %w", err)
		}
		if m.Deleted {
			already = true
			return nil
		}
		m.SoftDelete(s.now().UTC())
		if err := r.Memberships().Save(ctx, m); err != nil {
			return fmt.Errorf("r.Memberships().Save: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !already {
		s.log.Info("membership withdrawn", "member_id", memberID)
	}
	return nil
}

func (s *service) UpdateMemberships(ctx context.Context, strategy Strategy) (BatchResult, error) {
	switch strategy {
	case StrategyDirty:
		return s.UpdateMembershipsDirty(ctx)
	case StrategyBulk:
		return s.UpdateMembershipsBulk(ctx)
	}
	return BatchResult{}, domain.InvalidArgument("invalid batch strategy %q", strategy)
}

// UpdateMembershipsDirty loads and saves one membership per transaction.
// Rows committed before a failure stay committed; rerunning the batch is
// not idempotent for them since their spending is already reset.
func (s *service) UpdateMembershipsDirty(ctx context.Context) (BatchResult, error) {
	result := newBatchResult(StrategyDirty)

	var ids []uuid.UUID
	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) (err error) {
		ids, err = r.Memberships().ListActiveMemberIDs(ctx)
		if err != nil {
			return fmt.Errorf("r.Memberships().ListActiveMemberIDs: %w", err)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	for _, memberID := range ids {
		var (
			grade   domain.Grade
			skipped bool
		)
		err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) error {
			m, err := r.Memberships().LockByMemberID(ctx, memberID)
			if err != nil {
				return fmt.Errorf("r.Memberships().LockByMemberID: %w", err)
			}
			if m.Deleted {
				skipped = true
				return nil
			}
			m.CloseQuarter(s.now().UTC())
			grade = m.Grade
			if err := r.Memberships().Save(ctx, m); err != nil {
				return fmt.Errorf("r.Memberships().Save: %w", err)
			}
			return nil
		})
		if err != nil {
			s.log.Error("quarter close aborted", "strategy", StrategyDirty, "member_id", memberID, "processed", result.Processed, "error", err)
			return result, err
		}
		if skipped {
			continue
		}
		result.Processed++
		result.Grades[grade]++
	}

	err = s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) error {
		return s.appendClosed(ctx, r, result)
	})
	if err != nil {
		return result, err
	}

	s.finish(ctx, result)
	return result, nil
}

// UpdateMembershipsBulk locks every active membership, assigns grades with
// one range update per band and only then resets spending, so each band
// statement sees the totals as they were before the run.
func (s *service) UpdateMembershipsBulk(ctx context.Context) (BatchResult, error) {
	result := newBatchResult(StrategyBulk)

	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) error {
		if _, err := r.Memberships().LockActive(ctx); err != nil {
			return fmt.Errorf("r.Memberships().LockActive: %w", err)
		}

		for _, band := range domain.Bands() {
			n, err := r.Memberships().AssignGrade(ctx, band)
			if err != nil {
				return fmt.Errorf("r.Memberships().AssignGrade[%s]: %w", band.Grade, err)
			}
			result.Grades[band.Grade] = int(n)
		}

		reset, err := r.Memberships().ResetSpending(ctx)
		if err != nil {
			return fmt.Errorf("r.Memberships().ResetSpending: %w", err)
		}
		result.Processed = int(reset)

		return s.appendClosed(ctx, r, result)
	})
	if err != nil {
		s.log.Error("quarter close aborted", "strategy", StrategyBulk, "error", err)
		return newBatchResult(StrategyBulk), err
	}

	s.finish(ctx, result)
	return result, nil
}

func newBatchResult(strategy Strategy) BatchResult {
	return BatchResult{
		RunID:    uuid.New(),
		Strategy: strategy,
		Grades:   make(map[domain.Grade]int),
	}
}

func (s *service) appendClosed(ctx context.Context, r port.Repositories, result BatchResult) error {
	e, err := domain.NewEvent(result.RunID, domain.AggregateMembership, domain.EventQuarterClosed, domain.QuarterClosedEvent{
		Strategy:  string(result.Strategy),
		Processed: result.Processed,
	})
	if err != nil {
		return fmt.Errorf("domain.NewEvent: %w", err)
	}
	if err := r.Events().Append(ctx, result.RunID, domain.AggregateMembership, 0, e); err != nil {
		return fmt.Errorf("r.Events().Append: %w", err)
	}
	return nil
}

func (s *service) finish(ctx context.Context, result BatchResult) {
	s.closed.Add(ctx, int64(result.Processed), metric.WithAttributes(attribute.String("strategy", string(result.Strategy))))
	s.log.Info("quarter closed",
		"run_id", result.RunID,
		"strategy", result.Strategy,
		"processed", result.Processed,
		"silver", result.Grades[domain.GradeSilver],
		"gold", result.Grades[domain.GradeGold],
		"vip", result.Grades[domain.GradeVIP],
	)
}
