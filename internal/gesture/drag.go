// Package gesture turns discrete pointer events into day-granular reschedule
// commits for timeline bars. The controller is a finite-state machine driven
// entirely by its inputs, so it can be exercised with synthetic pointer
// sequences.
package gesture

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/apexhq/trackline/internal/domain"
	"github.com/apexhq/trackline/internal/timeline"
)

// State of the drag controller.
type State int

const (
	StateIdle State = iota
	StatePressed
	StateDragging
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePressed:
		return "pressed"
	case StateDragging:
		return "dragging"
	case StateCommitting:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Committer sends the rescheduled dates to the backend. Implementations are
// expected to be the PUT reschedule call.
type Committer interface {
	Reschedule(ctx context.Context, eventID uuid.UUID, start, end domain.Date) error
}

// Bar identifies the pressed timeline bar and its pre-drag placement.
type Bar struct {
	EventID uuid.UUID
	Start   domain.Date
	End     domain.Date
	OffsetX float64 // current pixel offset of the bar
}

// DecisionKind classifies what a pointer-up resolved to.
type DecisionKind int

const (
	// DecisionClick: the threshold was never crossed; open the edit dialog.
	DecisionClick DecisionKind = iota
	// DecisionSnapBack: a drag that rounded to zero days; no backend call.
	DecisionSnapBack
	// DecisionCommit: a nonzero day offset is pending; call Commit next.
	DecisionCommit
)

// Decision is the outcome of PointerUp.
type Decision struct {
	Kind     DecisionKind
	Days     int
	NewStart domain.Date
	NewEnd   domain.Date
}

var (
	errNotPressed    = errors.New("gesture: no active press")
	errNotCommitting = errors.New("gesture: nothing to commit")
)

// Controller tracks one pointer's drag gesture. Not safe for concurrent use;
// each pointer owns its own controller.
type Controller struct {
	dayWidth  float64
	threshold float64
	committer Committer

	state   State
	bar     Bar
	originX float64
	lastX   float64

	// pendingDays is the day shift of the in-flight commit; it holds the
	// bar at its optimistic position until the backend answers.
	pendingDays int

	// generation invalidates in-flight commits after Reset.
	generation uint64
}

// NewController builds a controller. dayWidth must match the geometry the
// bars were rendered with; threshold is the click-vs-drag pixel cutoff.
func NewController(dayWidth, threshold float64, committer Committer) *Controller {
	if dayWidth <= 0 {
		dayWidth = timeline.DefaultDayWidthPx
	}
	if threshold <= 0 {
		threshold = timeline.DefaultDragThreshold
	}
	return &Controller{
		dayWidth:  dayWidth,
		threshold: threshold,
		committer: committer,
	}
}

func (c *Controller) State() State { return c.state }

// VisualOffset returns where the bar should be drawn right now. While
// dragging it follows the pointer 1:1. While a commit is in flight it sits
// at the snapped optimistic position; a failed commit drops it back to the
// resting offset.
func (c *Controller) VisualOffset() float64 {
	switch c.state {
	case StateDragging:
		return c.bar.OffsetX + (c.lastX - c.originX)
	case StateCommitting:
		return c.bar.OffsetX + float64(c.pendingDays)*c.dayWidth
	default:
		return c.bar.OffsetX
	}
}

// PointerDown starts a gesture on the given bar. Ignored while a commit for
// the previous gesture is still outstanding.
func (c *Controller) PointerDown(bar Bar, x float64) {
	if c.state != StateIdle {
		return
	}
	c.state = StatePressed
	c.bar = bar
	c.originX = x
	c.lastX = x
}

// PointerMove feeds a horizontal pointer position. The transition from
// Pressed to Dragging happens on the first move past the threshold; before
// that the gesture still resolves as a click.
func (c *Controller) PointerMove(x float64) {
	switch c.state {
	case StatePressed:
		c.lastX = x
		if math.Abs(x-c.originX) > c.threshold {
			c.state = StateDragging
		}
	case StateDragging:
		c.lastX = x
	default:
	}
}

// PointerUp resolves the gesture. A press that never crossed the threshold
// is a click. A drag rounds its pixel displacement to the nearest whole day:
// zero snaps the bar back with no backend call, nonzero moves the controller
// to Committing with both dates shifted and duration preserved.
func (c *Controller) PointerUp() (Decision, error) {
	switch c.state {
	case StatePressed:
		c.state = StateIdle
		return Decision{Kind: DecisionClick}, nil
	case StateDragging:
		days := int(math.Round((c.lastX - c.originX) / c.dayWidth))
		if days == 0 {
			c.state = StateIdle
			return Decision{Kind: DecisionSnapBack}, nil
		}
		c.state = StateCommitting
		c.pendingDays = days
		return Decision{
			Kind:     DecisionCommit,
			Days:     days,
			NewStart: c.bar.Start.AddDays(days),
			NewEnd:   c.bar.End.AddDays(days),
		}, nil
	default:
		return Decision{}, errNotPressed
	}
}

// Commit performs the backend update for a pending DecisionCommit. On
// success the bar's resting position and dates move to the committed values;
// on failure the bar reverts to its pre-drag position and the error is
// returned for surfacing. A response that lands after Reset is discarded
// either way.
func (c *Controller) Commit(ctx context.Context, d Decision) error {
	if c.state != StateCommitting || d.Kind != DecisionCommit {
		return errNotCommitting
	}

	gen := c.generation
	err := c.committer.Reschedule(ctx, c.bar.EventID, d.NewStart, d.NewEnd)

	if gen != c.generation {
		// Controller was reset (view unmounted) while the call was in
		// flight; the response no longer applies to anything on screen.
		return nil
	}

	c.state = StateIdle
	c.pendingDays = 0
	if err != nil {
		return fmt.Errorf("gesture: commit reschedule: %w", err)
	}
	c.bar.Start = d.NewStart
	c.bar.End = d.NewEnd
	c.bar.OffsetX += float64(d.Days) * c.dayWidth
	return nil
}

// Reset abandons the current gesture and invalidates any in-flight commit.
// Used on view unmount or navigation.
func (c *Controller) Reset() {
	c.generation++
	c.state = StateIdle
	c.bar = Bar{}
	c.pendingDays = 0
}
