package timeline

import (
	"errors"

	"github.com/google/uuid"

	"github.com/apexhq/trackline/internal/domain"
)

// Render defaults. Day width and padding match the original roadmap view;
// MinBarWidthPx keeps one-day events clickable.
const (
	DefaultDayWidthPx    = 40.0
	DefaultRowHeightPx   = 50.0
	DefaultBarHeightPx   = 30.0
	DefaultPadBeforeDays = 5
	DefaultPadAfterDays  = 10
	DefaultMinBarWidthPx = 24.0
	DefaultMaxWindowDays = 730
	DefaultDragThreshold = 4.0
)

// ErrWindowTooWide is returned when the padded visible window exceeds the
// sanity bound; the caller should show a placeholder instead of rendering.
var ErrWindowTooWide = errors.New("timeline: window too wide to render")

// Options control the pixel mapping. Zero fields take the defaults above.
type Options struct {
	DayWidthPx    float64 `yaml:"day_width_px" json:"day_width_px"`
	RowHeightPx   float64 `yaml:"row_height_px" json:"row_height_px"`
	BarHeightPx   float64 `yaml:"bar_height_px" json:"bar_height_px"`
	PadBeforeDays int     `yaml:"pad_before_days" json:"pad_before_days"`
	PadAfterDays  int     `yaml:"pad_after_days" json:"pad_after_days"`
	MinBarWidthPx float64 `yaml:"min_bar_width_px" json:"min_bar_width_px"`
	MaxWindowDays int     `yaml:"max_window_days" json:"max_window_days"`
}

// withDefaults fills zero fields; negative pads are treated as zero.
func (o Options) withDefaults() Options {
	if o.DayWidthPx <= 0 {
		o.DayWidthPx = DefaultDayWidthPx
	}
	if o.RowHeightPx <= 0 {
		o.RowHeightPx = DefaultRowHeightPx
	}
	if o.BarHeightPx <= 0 {
		o.BarHeightPx = DefaultBarHeightPx
	}
	if o.PadBeforeDays < 0 {
		o.PadBeforeDays = 0
	} else if o.PadBeforeDays == 0 {
		o.PadBeforeDays = DefaultPadBeforeDays
	}
	if o.PadAfterDays < 0 {
		o.PadAfterDays = 0
	} else if o.PadAfterDays == 0 {
		o.PadAfterDays = DefaultPadAfterDays
	}
	if o.MinBarWidthPx <= 0 {
		o.MinBarWidthPx = DefaultMinBarWidthPx
	}
	if o.MaxWindowDays <= 0 {
		o.MaxWindowDays = DefaultMaxWindowDays
	}
	return o
}

// Effective returns the options with every zero field resolved to its
// default, the exact values Compute will use.
func (o Options) Effective() Options { return o.withDefaults() }

// Bar is the pixel placement of a single event.
type Bar struct {
	EventID uuid.UUID `json:"event_id"`
	Lane    int       `json:"lane"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
}

// Layout is the full computed geometry for a set of events.
type Layout struct {
	WindowStart domain.Date    `json:"window_start"`
	WindowEnd   domain.Date    `json:"window_end"`
	WindowDays  int            `json:"window_days"`
	DayWidthPx  float64        `json:"day_width_px"`
	LaneCount   int            `json:"lane_count"`
	Bars        []Bar          `json:"bars"`
	Skipped     []SkippedEvent `json:"skipped,omitempty"`
}

// Empty reports whether there is nothing to draw.
func (l *Layout) Empty() bool { return len(l.Bars) == 0 }

// Compute packs the events into lanes and maps them onto a padded visible
// window. With no usable events it returns an explicit empty layout. When
// the padded window exceeds opts.MaxWindowDays it returns ErrWindowTooWide;
// individually malformed events are reported in Layout.Skipped instead of
// failing the whole layout.
func Compute(events []*domain.TimelineEvent, opts Options) (*Layout, error) {
	opts = opts.withDefaults()
	packing := Pack(events)

	layout := &Layout{
		DayWidthPx: opts.DayWidthPx,
		LaneCount:  packing.LaneCount,
		Skipped:    packing.Skipped,
	}
	if len(packing.Lanes) == 0 {
		return layout, nil
	}

	var minDate, maxDate domain.Date
	for _, ev := range events {
		if _, ok := packing.Lanes[ev.ID]; !ok {
			continue
		}
		if minDate.IsZero() {
			minDate, maxDate = ev.StartDate, ev.EndDate
			continue
		}
		minDate = domain.MinDate(minDate, ev.StartDate)
		maxDate = domain.MaxDate(maxDate, ev.EndDate)
	}

	layout.WindowStart = minDate.AddDays(-opts.PadBeforeDays)
	layout.WindowEnd = maxDate.AddDays(opts.PadAfterDays)
	layout.WindowDays = layout.WindowStart.DaysUntil(layout.WindowEnd) + 1
	if layout.WindowDays > opts.MaxWindowDays {
		return nil, ErrWindowTooWide
	}

	layout.Bars = make([]Bar, 0, len(packing.Lanes))
	for _, ev := range events {
		lane, ok := packing.Lanes[ev.ID]
		if !ok {
			continue
		}
		width := float64(ev.StartDate.DaysUntil(ev.EndDate)+1) * opts.DayWidthPx
		if width < opts.MinBarWidthPx {
			width = opts.MinBarWidthPx
		}
		layout.Bars = append(layout.Bars, Bar{
			EventID: ev.ID,
			Lane:    lane,
			X:       float64(layout.WindowStart.DaysUntil(ev.StartDate)) * opts.DayWidthPx,
			Y:       float64(lane) * opts.RowHeightPx,
			Width:   width,
			Height:  opts.BarHeightPx,
		})
	}

	return layout, nil
}
