package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentbazaar/internal/app/outbox"
	"rentbazaar/internal/app/uow"
)

var ErrSweeperNotConfigured = errors.New("schedule: sweeper missing dependencies")

// OverdueSweeper periodically materializes the overdue status on approved or
// in-progress bookings whose end date has passed. Reads already derive
// overdue from the clock; the sweep keeps stored state and notifications in
// line with it.
type OverdueSweeper struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Interval   time.Duration
	Now        func() time.Time
}

func (s *OverdueSweeper) Run(ctx context.Context) error {
	if s.UoWFactory == nil {
		return ErrSweeperNotConfigured
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				if s.Logger != nil {
					s.Logger.Error("overdue sweep failed", "error", err)
				}
			}
		}
	}
}

// SweepOnce marks every overdue booking in a single unit of work.
func (s *OverdueSweeper) SweepOnce(ctx context.Context) error {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()

	now := s.now()
	candidates, err := unit.Bookings().ListHoldingEndedBefore(execCtx, now)
	if err != nil {
		return err
	}
	marked := 0
	for _, b := range candidates {
		if err := b.MarkOverdue(now); err != nil {
			// raced with a check-out or cancellation, skip
			continue
		}
		if err := unit.Bookings().Save(execCtx, b); err != nil {
			return err
		}
		pending := b.PendingEvents()
		b.ClearEvents()
		if err := outbox.RecordDomainEvents(execCtx, s.Outbox, s.Encoder, pending); err != nil {
			return err
		}
		marked++
	}
	if err := unit.Commit(execCtx); err != nil {
		return err
	}
	committed = true

	if s.Logger != nil && marked > 0 {
		s.Logger.Info("overdue sweep completed", "marked", marked)
	}
	return nil
}

func (s *OverdueSweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Minute
	}
	return s.Interval
}

func (s *OverdueSweeper) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
