// Package annual runs one annual report invocation: status message, counter
// increment, concurrent signal collection, composition and delivery.
package annual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"telereport/internal/collect"
	"telereport/internal/logging"
	"telereport/internal/report"
	"telereport/internal/stats"
)

// ErrNoClient is returned when the invocation has no messaging client.
var ErrNoClient = errors.New("no messaging client available")

// IdentitySource returns the current account.
type IdentitySource interface {
	CurrentIdentity(ctx context.Context) (report.Identity, error)
}

// Client is everything the controller needs from the messaging platform.
type Client interface {
	collect.DialogSource
	collect.ModerationSource
	IdentitySource
}

// Message is the invoking message, edited in place.
type Message interface {
	Edit(ctx context.Context, html string) error
}

// QuoteSource supplies the closing quote. Value is always usable.
type QuoteSource interface {
	Fetch(ctx context.Context) collect.Result[string]
}

// Options tune the controller. Zero values fall back to defaults.
type Options struct {
	HostName string
	Location *time.Location
	Now      func() time.Time

	// SlowAfter is the invocation duration logged as a warning.
	SlowAfter time.Duration
}

const defaultSlowAfter = 15 * time.Second

// Controller handles invocations. It is safe for concurrent use; the
// counter store serializes increments within the process.
type Controller struct {
	store     stats.Store
	collector *collect.Collector
	quotes    QuoteSource
	hostName  string
	loc       *time.Location
	now       func() time.Time
	slowAfter time.Duration
}

// New creates a Controller.
func New(store stats.Store, collector *collect.Collector, quotes QuoteSource, opts Options) *Controller {
	if opts.HostName == "" {
		opts.HostName = "TeleBox"
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SlowAfter <= 0 {
		opts.SlowAfter = defaultSlowAfter
	}
	logging.Report("controller ready: host %s, timezone %s", opts.HostName, opts.Location)
	return &Controller{
		store:     store,
		collector: collector,
		quotes:    quotes,
		hostName:  opts.HostName,
		loc:       opts.Location,
		now:       opts.Now,
		slowAfter: opts.SlowAfter,
	}
}

// Outcome describes a finished invocation.
type Outcome struct {
	RequestID string
	// Text is the final message content: the report or the failure text.
	Text  string
	Stats stats.Stats
	// Degraded lists the collectors that fell back to defaults.
	Degraded []string
}

// Handle runs one invocation against client and edits msg with the result.
// Only a missing client and a failed identity lookup are fatal; every other
// signal degrades to its default.
func (c *Controller) Handle(ctx context.Context, client Client, msg Message) (out Outcome, err error) {
	out.RequestID = uuid.NewString()
	log := logging.Get(logging.CategoryReport).With("req", out.RequestID)
	timer := logging.StartTimer(logging.CategoryReport, "Handle")
	defer timer.StopWithThreshold(c.slowAfter)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
			logging.ReportError("invocation %s panicked: %v", out.RequestID, r)
			out.Text = report.FailureText(err)
			c.edit(ctx, log, msg, out.Text)
		}
	}()

	if client == nil {
		out.Text = report.NoClientText
		c.edit(ctx, log, msg, out.Text)
		return out, ErrNoClient
	}

	c.edit(ctx, log, msg, report.LoadingText)

	snap, incErr := c.store.Increment()
	if incErr != nil {
		log.Warn("counter not persisted: %v", incErr)
		if snap.StartTime <= 0 {
			if loaded, loadErr := c.store.Load(); loadErr == nil {
				snap = loaded
			}
		}
	}
	out.Stats = snap
	log.Info("invocation %d started", snap.ReportCount)

	firstRun := snap.Started()
	if snap.StartTime <= 0 {
		firstRun = c.now()
	}

	var (
		identity   report.Identity
		chats      collect.Result[collect.Composition]
		blocked    collect.Result[int]
		tenure     collect.Result[collect.Tenure]
		extensions collect.Result[int]
		quote      collect.Result[string]
	)

	eg, egCtx := errgroup.WithContext(ctx)
	goSafe := func(fn func() error) {
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("internal error: %v", r)
				}
			}()
			return fn()
		})
	}

	// 1. Identity (fatal on failure)
	goSafe(func() error {
		id, err := client.CurrentIdentity(egCtx)
		if err != nil {
			return fmt.Errorf("fetching current user: %w", err)
		}
		identity = id
		return nil
	})

	// 2. Chat composition
	goSafe(func() error {
		chats = c.collector.ChatComposition(egCtx, client)
		return nil
	})

	// 3. Blocked list size
	goSafe(func() error {
		blocked = c.collector.ModerationCount(egCtx, client)
		return nil
	})

	// 4. Tenure
	goSafe(func() error {
		tenure = c.collector.Tenure(firstRun)
		return nil
	})

	// 5. Installed extensions
	goSafe(func() error {
		extensions = c.collector.Extensions()
		return nil
	})

	// 6. Quote
	goSafe(func() error {
		quote = c.quotes.Fetch(egCtx)
		return nil
	})

	if err := eg.Wait(); err != nil {
		log.Error("report aborted: %v", err)
		out.Text = report.FailureText(err)
		c.edit(ctx, log, msg, out.Text)
		return out, err
	}

	for _, sig := range []struct {
		name string
		err  error
	}{
		{"chats", chats.Err},
		{"moderation", blocked.Err},
		{"tenure", tenure.Err},
		{"extensions", extensions.Err},
		{"quote", quote.Err},
	} {
		if sig.err != nil {
			out.Degraded = append(out.Degraded, sig.name)
		}
	}
	if len(out.Degraded) > 0 {
		log.Warn("degraded signals: %v", out.Degraded)
	}

	out.Text = report.Compose(report.Input{
		Identity:   identity,
		Year:       report.Year(c.now().In(c.loc)),
		HostName:   c.hostName,
		TenureDays: tenure.Value.Days,
		Extensions: extensions.Value,
		Chats:      chats.Value,
		Blocked:    blocked.Value,
		Quote:      quote.Value,
	})

	if err := msg.Edit(ctx, out.Text); err != nil {
		log.Error("delivering report failed: %v", err)
		return out, fmt.Errorf("delivering report: %w", err)
	}
	log.Info("report delivered (tenure from %s)", tenure.Value.Source)
	return out, nil
}

func (c *Controller) edit(ctx context.Context, log *logging.Logger, msg Message, text string) {
	if msg == nil {
		return
	}
	if err := msg.Edit(ctx, text); err != nil {
		log.Warn("editing message failed: %v", err)
	}
}
