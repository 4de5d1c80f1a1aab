package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/user/onboardflow/internal/adapter/metrics"
	"github.com/user/onboardflow/internal/domain"
)

// Candidate pairs an end user with the nudge selected for them.
type Candidate struct {
	User      domain.EndUser
	Selection domain.Selection
}

// DispatchResult summarizes one batch.
type DispatchResult struct {
	// Attempted counts candidates that reached the mailer.
	Attempted int
	// Sent counts emails that were sent and persisted.
	Sent int
	// Skipped counts candidates dropped before sending (no email address).
	Skipped int
	// Failed counts per-user send or persist failures.
	Failed int
}

// Dispatcher sends nudge emails for a batch of eligible users and persists
// the outcome per user. A failure for one user never aborts the batch.
type Dispatcher struct {
	users   domain.EndUserRepository
	mailer  domain.Mailer
	logger  *slog.Logger
	metrics *metrics.EngineMetrics
	from    string
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher. metrics may be nil.
func NewDispatcher(users domain.EndUserRepository, mailer domain.Mailer, logger *slog.Logger, m *metrics.EngineMetrics, from string) *Dispatcher {
	return &Dispatcher{
		users:   users,
		mailer:  mailer,
		logger:  logger,
		metrics: m,
		from:    from,
		now:     time.Now,
	}
}

// Dispatch processes the batch in order. For each candidate it renders the
// body, sends, and on confirmed send writes last_emailed_at (plus the tag,
// when the selection carries one). The send and the write are not a
// transaction: a crash between them can produce a duplicate send on the next
// sweep, which is the accepted at-least-once behavior.
func (d *Dispatcher) Dispatch(ctx context.Context, tenant *domain.Tenant, batch []Candidate, mode string) DispatchResult {
	var res DispatchResult

	for _, c := range batch {
		if c.User.Email == "" {
			res.Skipped++
			continue
		}
		res.Attempted++

		body := strings.ReplaceAll(c.Selection.Body, "{{name}}", c.User.EmailLocalPart())

		if err := d.mailer.Send(ctx, d.from, c.User.Email, c.Selection.Subject, body); err != nil {
			d.logger.Error("failed to send nudge",
				"error", err,
				"tenant_id", tenant.ID,
				"user_id", c.User.ID,
				"step", c.Selection.Step.String(),
			)
			if d.metrics != nil {
				d.metrics.NudgeSendFailures.Inc()
			}
			res.Failed++
			continue
		}

		sentAt := d.now().UTC()
		var persistErr error
		if c.Selection.Tag != "" {
			persistErr = d.users.MarkNudged(ctx, c.User.ID, c.Selection.Tag, sentAt)
		} else {
			persistErr = d.users.TouchEmailed(ctx, c.User.ID, sentAt)
		}
		if persistErr != nil {
			// The email went out but the user stays unmarked; the next run
			// may retry them.
			d.logger.Error("sent nudge but failed to persist outcome",
				"error", persistErr,
				"tenant_id", tenant.ID,
				"user_id", c.User.ID,
				"tag", string(c.Selection.Tag),
			)
			res.Failed++
			continue
		}

		if d.metrics != nil {
			tag := string(c.Selection.Tag)
			if tag == "" {
				tag = c.Selection.Step.String()
			}
			d.metrics.NudgesSent.WithLabelValues(tag, mode).Inc()
		}
		d.logger.Info("nudge sent",
			"tenant_id", tenant.ID,
			"user_id", c.User.ID,
			"step", c.Selection.Step.String(),
			"mode", mode,
		)
		res.Sent++
	}

	return res
}
