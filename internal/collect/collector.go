package collect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"telereport/internal/logging"
)

const msPerDay = 24 * 60 * 60 * 1000

// moderationPageSize is the page requested only to read the total count.
const moderationPageSize = 1

// Config locates the deployment artifacts the filesystem collectors inspect.
type Config struct {
	Root              string
	BootstrapArtifact string
	ExtensionDirs     []string
	ExtensionSuffix   string
}

// Collector runs the individual signal collectors. It holds no mutable
// state, so its methods may run concurrently.
type Collector struct {
	cfg Config
	now func() time.Time
}

// New creates a Collector. A nil clock means time.Now.
func New(cfg Config, now func() time.Time) *Collector {
	if now == nil {
		now = time.Now
	}
	return &Collector{cfg: cfg, now: now}
}

// ChatComposition classifies every peer into exactly one bucket.
// On enumeration failure the composition is all zero.
func (c *Collector) ChatComposition(ctx context.Context, src DialogSource) Result[Composition] {
	timer := logging.StartTimer(logging.CategoryCollect, "ChatComposition")
	defer timer.Stop()

	peers, err := src.ListPeers(ctx)
	if err != nil {
		logging.CollectWarn("dialog enumeration failed: %v", err)
		return Result[Composition]{Err: fmt.Errorf("listing dialogs: %w", err)}
	}

	comp := Classify(peers)
	logging.CollectDebug("classified %d peers: %+v", len(peers), comp)
	return Result[Composition]{Value: comp}
}

// Classify buckets peers: non-bot users are private, bot users are bots,
// groups are groups, everything else is a channel.
func Classify(peers []Peer) Composition {
	var comp Composition
	for _, p := range peers {
		switch {
		case p.Kind == PeerUser && p.Bot:
			comp.Bots++
		case p.Kind == PeerUser:
			comp.Private++
		case p.Kind == PeerGroup:
			comp.Groups++
		default:
			comp.Channels++
		}
	}
	return comp
}

// ModerationCount reads the size of the blocked list with a one-entry page.
// The reported total wins; without one, the number of entries in that page
// is used, which is a lower bound and not an exact count.
func (c *Collector) ModerationCount(ctx context.Context, src ModerationSource) Result[int] {
	timer := logging.StartTimer(logging.CategoryCollect, "ModerationCount")
	defer timer.Stop()

	page, err := src.ListRestricted(ctx, 0, moderationPageSize)
	if err != nil {
		logging.CollectWarn("blocked list query failed: %v", err)
		return Result[int]{Err: fmt.Errorf("querying blocked peers: %w", err)}
	}

	n := page.Returned
	if page.HasTotal {
		n = page.Total
	}
	if n < 0 {
		n = 0
	}
	return Result[int]{Value: n}
}

// TenureSource tells which instant the tenure was measured from.
type TenureSource string

const (
	TenureFromArtifact TenureSource = "artifact"
	TenureFromFirstRun TenureSource = "first_run"
)

// Tenure is whole days of service and where they were measured from.
type Tenure struct {
	Days   int
	Source TenureSource
}

// Tenure measures whole days since the bootstrap artifact was last modified.
// When the artifact is missing, unreadable, or dated in the future, the
// first-run timestamp of the counter store is used instead. Err carries the
// primary failure, if any; Value is always usable.
func (c *Collector) Tenure(firstRun time.Time) Result[Tenure] {
	now := c.now()

	var primaryErr error
	if c.cfg.BootstrapArtifact != "" {
		path := filepath.Join(c.cfg.Root, c.cfg.BootstrapArtifact)
		info, err := os.Stat(path)
		switch {
		case err == nil:
			if days, ok := wholeDays(info.ModTime(), now); ok {
				return Result[Tenure]{Value: Tenure{Days: days, Source: TenureFromArtifact}}
			}
			primaryErr = fmt.Errorf("%s modified in the future", path)
			logging.CollectWarn("ignoring bootstrap artifact: %v", primaryErr)
		case errors.Is(err, os.ErrNotExist):
			logging.CollectDebug("no bootstrap artifact at %s", path)
		default:
			primaryErr = fmt.Errorf("stat bootstrap artifact: %w", err)
			logging.CollectWarn("%v", primaryErr)
		}
	}

	days, ok := wholeDays(firstRun, now)
	if !ok {
		days = 0
	}
	return Result[Tenure]{Value: Tenure{Days: days, Source: TenureFromFirstRun}, Err: primaryErr}
}

// wholeDays floors the millisecond delta to days. ok is false when from is
// after to.
func wholeDays(from, to time.Time) (int, bool) {
	delta := to.UnixMilli() - from.UnixMilli()
	if delta < 0 {
		return 0, false
	}
	return int(delta / msPerDay), true
}

// Extensions counts eligible extension files across every configured
// directory. A missing directory contributes zero silently; a listing
// failure contributes zero and is reported in Err while the other
// directories are still counted.
func (c *Collector) Extensions() Result[int] {
	total := 0
	var errs []error
	for _, dir := range c.cfg.ExtensionDirs {
		path := filepath.Join(c.cfg.Root, dir)
		n, err := c.countExtensions(path)
		if err != nil {
			logging.CollectWarn("listing %s failed: %v", path, err)
			errs = append(errs, fmt.Errorf("listing %s: %w", path, err))
			continue
		}
		logging.CollectDebug("%s: %d extensions", path, n)
		total += n
	}
	logging.Collect("%d extensions across %d directories", total, len(c.cfg.ExtensionDirs))
	return Result[int]{Value: total, Err: errors.Join(errs...)}
}

func (c *Collector) countExtensions(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n := 0
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasSuffix(name, c.cfg.ExtensionSuffix) {
			continue
		}
		n++
	}
	return n, nil
}
