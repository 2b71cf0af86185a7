package acquire

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// LayoutConfig tunes how positioned glyphs are assembled into tables.
type LayoutConfig struct {
	RowTolerance float64 // Y distance within which glyphs share a row
	WordGapRatio float64 // gap, in font sizes, that inserts a space inside a cell
	CellGapRatio float64 // gap, in font sizes, that starts a new cell
	WrapGapRatio float64 // max distance, in font sizes, from a row to its wrapped line
	MinRows      int
	MinColumns   int
}

// DefaultLayoutConfig returns tolerances that suit typical A4 invoices.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		RowTolerance: 3.0,
		WordGapRatio: 0.15,
		CellGapRatio: 1.0,
		WrapGapRatio: 2.5,
		MinRows:      2,
		MinColumns:   2,
	}
}

// LayoutTableSource finds tables by the position of glyphs on each page.
type LayoutTableSource struct {
	cfg LayoutConfig
}

// NewLayoutTableSource creates a new glyph layout table source
func NewLayoutTableSource(cfg LayoutConfig) *LayoutTableSource {
	return &LayoutTableSource{cfg: cfg}
}

// Tables returns every table found, page by page. Page and Index are 1-based.
func (s *LayoutTableSource) Tables(ctx context.Context, path string) ([]models.RawTable, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var tables []models.RawTable
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return tables, err
		}
		p := r.Page(pageNum)
		if p.V.IsNull() {
			continue
		}
		for i, grid := range s.detect(p.Content().Text) {
			tables = append(tables, models.NewRawTable(pageNum, i+1, grid))
		}
	}
	return tables, nil
}

type textBlock struct {
	x, right float64
	size     float64
	text     string
}

type glyphRow struct {
	y     float64
	texts []pdf.Text
}

type span struct {
	start, end float64
}

// tableRegion is a run of rows sharing column anchors. Anchors come from the
// first row and grow as later rows add cells.
type tableRegion struct {
	rows  [][]textBlock
	spans []span
	lastY float64
}

func newTableRegion(blocks []textBlock, y float64) *tableRegion {
	r := &tableRegion{}
	r.add(blocks, y)
	return r
}

// overlapped returns the indexes of the anchors b intersects.
func (r *tableRegion) overlapped(b textBlock) []int {
	var idx []int
	for i, sp := range r.spans {
		if b.x < sp.end && b.right > sp.start {
			idx = append(idx, i)
		}
	}
	return idx
}

// straddles reports whether any block covers two or more anchors, as a
// full-width footer or caption does.
func (r *tableRegion) straddles(blocks []textBlock) bool {
	for _, b := range blocks {
		if len(r.overlapped(b)) >= 2 {
			return true
		}
	}
	return false
}

func (r *tableRegion) add(blocks []textBlock, y float64) {
	for _, b := range blocks {
		idx := r.overlapped(b)
		if len(idx) == 1 {
			sp := &r.spans[idx[0]]
			sp.start = math.Min(sp.start, b.x)
			sp.end = math.Max(sp.end, b.right)
			continue
		}
		r.spans = append(r.spans, span{start: b.x, end: b.right})
		sort.Slice(r.spans, func(i, j int) bool {
			return r.spans[i].start < r.spans[j].start
		})
	}
	r.rows = append(r.rows, blocks)
	r.lastY = y
}

// wrap appends a lone block to the matching cell of the last row when it
// reads as a wrapped line: close below it, inside one anchor other than the
// first, under a cell that already holds text.
func (r *tableRegion) wrap(b textBlock, y, maxGap float64) bool {
	if r.lastY-y > maxGap {
		return false
	}
	idx := r.overlapped(b)
	if len(idx) != 1 || idx[0] == 0 {
		return false
	}

	last := r.rows[len(r.rows)-1]
	for i := range last {
		if columnOf(r.spans, (last[i].x+last[i].right)/2) == idx[0] {
			last[i].text += " " + b.text
			last[i].right = math.Max(last[i].right, b.right)
			return true
		}
	}
	return false
}

func (r *tableRegion) grid() [][]string {
	grid := make([][]string, len(r.rows))
	for i, row := range r.rows {
		cells := make([]string, len(r.spans))
		for _, b := range row {
			col := columnOf(r.spans, (b.x+b.right)/2)
			if cells[col] != "" {
				cells[col] += " "
			}
			cells[col] += b.text
		}
		grid[i] = cells
	}
	return grid
}

// detect turns the glyphs of one page into table grids.
func (s *LayoutTableSource) detect(texts []pdf.Text) [][][]string {
	var (
		grids  [][][]string
		region *tableRegion
	)

	flush := func() {
		if region != nil && len(region.rows) >= s.cfg.MinRows {
			grids = append(grids, region.grid())
		}
		region = nil
	}

	for _, row := range s.groupRows(texts) {
		blocks := s.rowBlocks(row.texts)

		if region != nil {
			switch {
			case len(blocks) >= s.cfg.MinColumns && !region.straddles(blocks):
				region.add(blocks, row.y)
				continue
			case len(blocks) == 1 && region.wrap(blocks[0], row.y, s.cfg.WrapGapRatio*blocks[0].size):
				continue
			}
			flush()
		}

		if len(blocks) >= s.cfg.MinColumns {
			region = newTableRegion(blocks, row.y)
		}
	}
	flush()

	return grids
}

// groupRows buckets glyphs by baseline, top of the page first, each row
// sorted left to right.
func (s *LayoutTableSource) groupRows(texts []pdf.Text) []glyphRow {
	type rowBucket struct {
		yMin, yMax float64
		texts      []pdf.Text
	}

	var buckets []rowBucket
	for _, t := range texts {
		found := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-s.cfg.RowTolerance && t.Y <= buckets[i].yMax+s.cfg.RowTolerance {
				buckets[i].texts = append(buckets[i].texts, t)
				buckets[i].yMin = math.Min(buckets[i].yMin, t.Y)
				buckets[i].yMax = math.Max(buckets[i].yMax, t.Y)
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, rowBucket{yMin: t.Y, yMax: t.Y, texts: []pdf.Text{t}})
		}
	}

	// PDF user space grows upwards
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].yMax > buckets[j].yMax
	})

	rows := make([]glyphRow, len(buckets))
	for i, b := range buckets {
		sort.SliceStable(b.texts, func(x, y int) bool {
			return b.texts[x].X < b.texts[y].X
		})
		rows[i] = glyphRow{y: b.yMax, texts: b.texts}
	}
	return rows
}

// rowBlocks merges the glyphs of a row into cell blocks.
func (s *LayoutTableSource) rowBlocks(row []pdf.Text) []textBlock {
	var (
		blocks []textBlock
		cur    *textBlock
		sb     strings.Builder
	)

	closeBlock := func() {
		if cur == nil {
			return
		}
		cur.text = strings.TrimSpace(sb.String())
		if cur.text != "" {
			blocks = append(blocks, *cur)
		}
		cur = nil
		sb.Reset()
	}

	for _, t := range row {
		size := t.FontSize
		if size <= 0 {
			size = 10
		}

		if cur != nil {
			gap := t.X - cur.right
			if gap > s.cfg.CellGapRatio*size {
				closeBlock()
			} else if gap > s.cfg.WordGapRatio*size && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteString(" ")
			}
		}

		if cur == nil {
			// Leading blanks never open a cell
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			cur = &textBlock{x: t.X, right: t.X + t.W}
		}

		sb.WriteString(t.S)
		cur.right = math.Max(cur.right, t.X+t.W)
		cur.size = math.Max(cur.size, size)
	}
	closeBlock()

	return blocks
}

// columnOf returns the span holding x, or the nearest span.
func columnOf(spans []span, x float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, sp := range spans {
		if x >= sp.start && x <= sp.end {
			return i
		}
		d := math.Min(math.Abs(x-sp.start), math.Abs(x-sp.end))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
