package passthrough

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/slicerar/arview/logging"
	"github.com/slicerar/arview/scene"
	"github.com/slicerar/arview/utils"
	"github.com/slicerar/arview/viewport"
)

// DefaultPollInterval is roughly one frame at 60Hz.
const DefaultPollInterval = 16 * time.Millisecond

// PollerOptions configure a Poller.
type PollerOptions struct {
	Interval time.Duration
	Clock    clock.Clock
}

// Poller is the stereo background for hosts that cannot notify about new frames. A single
// timer-driven task snapshots both eyes every interval and rebinds the textures when either
// eye's modification time changed. The eye sources are fixed at construction.
type Poller struct {
	logger   logging.Logger
	scene    scene.Scene
	vp       viewport.Viewport
	eyes     EyeSources
	clock    clock.Clock
	interval time.Duration

	workers utils.StoppableWorkers

	// owned by the polling task
	polled   bool
	lastSeen [2]uint64
}

// NewPoller returns a stopped Poller.
func NewPoller(s scene.Scene, vp viewport.Viewport, eyes EyeSources, opts PollerOptions, logger logging.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Poller{
		logger:   logger,
		scene:    s,
		vp:       vp,
		eyes:     eyes,
		clock:    opts.Clock,
		interval: opts.Interval,
	}
}

// Start begins polling. The ticker is created before Start returns.
func (p *Poller) Start(ctx context.Context) {
	ticker := p.clock.Ticker(p.interval)
	p.workers = utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Poll()
			}
		}
	})
}

// Stop stops polling and waits for the task to exit.
func (p *Poller) Stop() {
	if p.workers != nil {
		p.workers.Stop()
	}
}

// Poll rebinds the textures if either eye changed since the last poll and reports whether it did.
// It is what the running poller does on every tick, so call it directly only while stopped.
func (p *Poller) Poll() bool {
	frame := Snapshot(p.scene, p.eyes)
	times := frame.modifiedTimes()
	if p.polled && times == p.lastSeen {
		return false
	}
	p.polled = true
	p.lastSeen = times
	enabled := applyStereoBackground(p.vp, frame)
	p.logger.Debugw("polled new stereo frame", "left_mtime", times[0], "right_mtime", times[1], "enabled", enabled)
	p.vp.ScheduleRender()
	return true
}
