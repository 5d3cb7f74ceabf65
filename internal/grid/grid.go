// Package grid maps between time of day and vertical pixel offsets on the
// week timeline.
package grid

import (
	"fmt"
	"math"

	"github.com/pak23399/TSchedule/internal/calendar"
)

const DefaultTimelineEnd = "18:00"

// seamPx overlaps adjacent blocks by one pixel when placing them.
const seamPx = 1.0

// Grid describes a timeline of equal slots. Start, End and Unit are minutes
// since midnight; SlotHeight is the rendered height of one slot in pixels.
type Grid struct {
	Start      int
	End        int
	Unit       int
	SlotHeight float64
}

type Placement struct {
	Top    float64
	Height float64
}

// New derives the grid from the rendered timeline labels: the first label is
// the start of the timeline and the gap to the second label is the unit.
func New(labels []string, timelineEnd string, slotHeightPx float64) (Grid, error) {
	if len(labels) < 2 {
		return Grid{}, fmt.Errorf("timeline needs at least two labels, got %d", len(labels))
	}
	first, err := calendar.ParseTimeOfDay(labels[0])
	if err != nil {
		return Grid{}, fmt.Errorf("first timeline label: %w", err)
	}
	second, err := calendar.ParseTimeOfDay(labels[1])
	if err != nil {
		return Grid{}, fmt.Errorf("second timeline label: %w", err)
	}
	if timelineEnd == "" {
		timelineEnd = DefaultTimelineEnd
	}
	end, err := calendar.ParseTimeOfDay(timelineEnd)
	if err != nil {
		return Grid{}, fmt.Errorf("timeline end: %w", err)
	}
	g := Grid{
		Start:      first.Minutes(),
		End:        end.Minutes(),
		Unit:       second.Minutes() - first.Minutes(),
		SlotHeight: slotHeightPx,
	}
	if g.Unit <= 0 {
		return Grid{}, fmt.Errorf("timeline labels must increase, got %s then %s", labels[0], labels[1])
	}
	if g.End-g.Start < g.Unit {
		return Grid{}, fmt.Errorf("timeline end %s leaves no slot after %s", timelineEnd, labels[0])
	}
	if !(slotHeightPx > 0) {
		return Grid{}, fmt.Errorf("slot height must be positive, got %v", slotHeightPx)
	}
	return g, nil
}

func (g Grid) MinutesToPixels(m float64) float64 {
	return g.SlotHeight * (m - float64(g.Start)) / float64(g.Unit)
}

func (g Grid) PixelsToMinutes(px float64) float64 {
	return float64(g.Start) + (px/g.SlotHeight)*float64(g.Unit)
}

// Height is the pixel height of the whole timeline.
func (g Grid) Height() float64 {
	return g.MinutesToPixels(float64(g.End))
}

// Place positions an occurrence spanning [startMin, endMin).
func (g Grid) Place(startMin, endMin int) Placement {
	top := g.MinutesToPixels(float64(startMin))
	bottom := g.MinutesToPixels(float64(endMin))
	return Placement{Top: top - seamPx, Height: bottom - top + seamPx}
}

// Snap rounds to the nearest multiple of the unit, ties rounding up.
func (g Grid) Snap(m float64) int {
	u := float64(g.Unit)
	return int(math.Floor(m/u+0.5)) * g.Unit
}

// Resolve turns live block geometry into a snapped, clamped [start, end)
// in minutes. The duration never drops below one unit and the block stays
// inside the timeline.
func (g Grid) Resolve(topPx, heightPx float64) (start, end int) {
	start = g.Snap(g.PixelsToMinutes(topPx))
	duration := g.Snap(heightPx / g.SlotHeight * float64(g.Unit))
	if duration < g.Unit {
		duration = g.Unit
	}
	start = clamp(start, g.Start, g.End-g.Unit)
	end = clamp(start+duration, start+g.Unit, g.End)
	return start, end
}

// Labels lists the timeline rows from Start up to, not including, End.
func (g Grid) Labels() []string {
	out := make([]string, 0, (g.End-g.Start)/g.Unit+1)
	for m := g.Start; m < g.End; m += g.Unit {
		out = append(out, calendar.FormatMinutes(m))
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
