// Package timeline lays out project roadmap events into non-overlapping
// visual lanes and maps them to pixel geometry for rendering.
package timeline

import (
	"sort"

	"github.com/google/uuid"

	"github.com/apexhq/trackline/internal/domain"
)

// SkippedEvent reports an event excluded from packing because its date range
// is unusable. The rest of the layout proceeds without it.
type SkippedEvent struct {
	EventID uuid.UUID `json:"event_id"`
	Reason  string    `json:"reason"`
}

// Packing is the result of lane assignment. Lanes maps event ID to a 0-based
// lane index such that no two events in the same lane overlap (inclusive on
// both ends; an event ending the day another starts still conflicts).
type Packing struct {
	Lanes     map[uuid.UUID]int
	LaneCount int
	Skipped   []SkippedEvent
}

// Pack assigns lanes with the greedy interval-partitioning algorithm: events
// are taken in ascending start-date order (stable, so input order breaks
// ties) and each goes to the first lane whose end watermark is strictly
// before the event's start, else a new lane opens. Deterministic for a given
// input ordering.
func Pack(events []*domain.TimelineEvent) Packing {
	p := Packing{Lanes: make(map[uuid.UUID]int, len(events))}

	usable := make([]*domain.TimelineEvent, 0, len(events))
	for _, ev := range events {
		switch {
		case ev.StartDate.IsZero() || ev.EndDate.IsZero():
			p.Skipped = append(p.Skipped, SkippedEvent{EventID: ev.ID, Reason: "missing start or end date"})
		case ev.EndDate.Before(ev.StartDate):
			p.Skipped = append(p.Skipped, SkippedEvent{EventID: ev.ID, Reason: "end date precedes start date"})
		default:
			usable = append(usable, ev)
		}
	}

	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].StartDate.Before(usable[j].StartDate)
	})

	// watermarks[i] holds the last occupied day of lane i.
	var watermarks []domain.Date
	for _, ev := range usable {
		placed := false
		for i, mark := range watermarks {
			if mark.Before(ev.StartDate) {
				watermarks[i] = ev.EndDate
				p.Lanes[ev.ID] = i
				placed = true
				break
			}
		}
		if !placed {
			watermarks = append(watermarks, ev.EndDate)
			p.Lanes[ev.ID] = len(watermarks) - 1
		}
	}

	p.LaneCount = len(watermarks)
	return p
}
