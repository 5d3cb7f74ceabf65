// Package render draws a static PNG preview of a displayed week.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/grid"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	gridLine   = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	labelInk   = color.RGBA{0x37, 0x41, 0x51, 0xff}
	blockInk   = color.RGBA{0xff, 0xff, 0xff, 0xff}

	StudyPlanFill = color.RGBA{0x3b, 0x82, 0xf6, 0xff}
	NormalFill    = color.RGBA{0x10, 0xb9, 0x81, 0xff}
)

type Config struct {
	Grid          grid.Grid
	ColumnWidthPx float64
	GutterPx      float64
	HeaderPx      float64
	// FontPath overrides the built-in Go Regular face.
	FontPath string
	FontSize float64
}

type Renderer struct {
	log  *logger.Logger
	cfg  Config
	font *truetype.Font
}

func New(log *logger.Logger, cfg Config) (*Renderer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.ColumnWidthPx <= 0 {
		cfg.ColumnWidthPx = 140
	}
	if cfg.GutterPx <= 0 {
		cfg.GutterPx = 56
	}
	if cfg.HeaderPx <= 0 {
		cfg.HeaderPx = 32
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = 12
	}
	raw := goregular.TTF
	if p := strings.TrimSpace(cfg.FontPath); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		raw = b
	}
	parsed, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return &Renderer{log: log.With("component", "WeekRenderer"), cfg: cfg, font: parsed}, nil
}

// Size is the pixel size of every rendered week.
func (r *Renderer) Size() (int, int) {
	w := r.cfg.GutterPx + 7*r.cfg.ColumnWidthPx
	h := r.cfg.HeaderPx + r.cfg.Grid.Height()
	return int(w), int(h)
}

// Week draws occurrences on the timeline of the week starting at monday.
// Faces are built per call; truetype faces are not safe for concurrent use.
func (r *Renderer) Week(monday calendar.Date, occs []calendar.Occurrence) ([]byte, error) {
	w, h := r.Size()
	dc := gg.NewContext(w, h)
	dc.SetColor(background)
	dc.Clear()
	dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{
		Size:    r.cfg.FontSize,
		DPI:     72,
		Hinting: font.HintingNone,
	}))

	r.drawFrame(dc, monday)

	grouped := calendar.GroupByDay(occs)
	for day, list := range grouped {
		for _, o := range list {
			r.drawBlock(dc, day, o)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawFrame(dc *gg.Context, monday calendar.Date) {
	g := r.cfg.Grid
	width := float64(dc.Width())

	dc.SetLineWidth(1)
	for i, label := range g.Labels() {
		y := r.cfg.HeaderPx + float64(i)*g.SlotHeight
		dc.SetColor(gridLine)
		dc.DrawLine(r.cfg.GutterPx, y, width, y)
		dc.Stroke()
		dc.SetColor(labelInk)
		dc.DrawStringAnchored(label, r.cfg.GutterPx-6, y, 1, 0.5)
	}
	for day := 0; day < 7; day++ {
		x := r.cfg.GutterPx + float64(day)*r.cfg.ColumnWidthPx
		dc.SetColor(gridLine)
		dc.DrawLine(x, 0, x, float64(dc.Height()))
		dc.Stroke()
		dc.SetColor(labelInk)
		header := fmt.Sprintf("%s %s", dayNames[day], monday.AddDays(day).String()[5:])
		dc.DrawStringAnchored(header, x+r.cfg.ColumnWidthPx/2, r.cfg.HeaderPx/2, 0.5, 0.5)
	}
}

func (r *Renderer) drawBlock(dc *gg.Context, day int, o calendar.Occurrence) {
	p := r.cfg.Grid.Place(o.StartTime().Minutes(), o.EndTime().Minutes())
	x := r.cfg.GutterPx + float64(day)*r.cfg.ColumnWidthPx + 2
	y := r.cfg.HeaderPx + p.Top
	w := r.cfg.ColumnWidthPx - 4

	fill := NormalFill
	if o.EventType == schedule.EventTypeStudyPlan {
		fill = StudyPlanFill
	}
	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x, y, w, p.Height, 4)
	dc.Fill()

	dc.SetColor(blockInk)
	lineH := dc.FontHeight() + 2
	dc.DrawString(o.Title, x+4, y+lineH)
	if p.Height > 2*lineH+4 {
		dc.DrawString(o.StartTime().HHMM()+"-"+o.EndTime().HHMM(), x+4, y+2*lineH)
	}
}
