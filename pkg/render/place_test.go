package render

import (
	"errors"
	"testing"

	"github.com/matzehuels/justified/pkg/justify"
)

func uniform(n int, ratio float64) []justify.Item {
	items := make([]justify.Item, n)
	for i := range items {
		items[i] = justify.Item{ID: string(rune('a' + i)), Ratio: ratio}
	}
	return items
}

func TestPlace(t *testing.T) {
	l, err := justify.Pack(uniform(5, 1.0), 600, 200, 10)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	f := Place(l)

	if len(f.Cells) != 5 {
		t.Fatalf("got %d cells, want 5", len(f.Cells))
	}
	if f.Rows != 3 {
		t.Errorf("Rows = %d, want 3", f.Rows)
	}

	tests := []struct {
		idx        int
		row, index int
		x, y       float64
		w, h       int
	}{
		{0, 0, 0, 0, 0, 295, 295},
		{1, 0, 1, 305, 0, 295, 295},
		{2, 1, 0, 0, 305, 295, 295},
		{3, 1, 1, 305, 305, 295, 295},
		{4, 2, 0, 0, 610, 200, 200},
	}
	for _, tt := range tests {
		c := f.Cells[tt.idx]
		if c.Row != tt.row || c.Index != tt.index {
			t.Errorf("cell %d at row %d index %d, want %d/%d", tt.idx, c.Row, c.Index, tt.row, tt.index)
		}
		if c.X != tt.x || c.Y != tt.y {
			t.Errorf("cell %d at (%v, %v), want (%v, %v)", tt.idx, c.X, c.Y, tt.x, tt.y)
		}
		if c.Width != tt.w || c.Height != tt.h {
			t.Errorf("cell %d size %dx%d, want %dx%d", tt.idx, c.Width, c.Height, tt.w, tt.h)
		}
	}

	if !f.Cells[4].Final || f.Cells[0].Final {
		t.Error("only the last row's cells should be marked final")
	}
	if f.Width != 600 {
		t.Errorf("Width = %v, want 600", f.Width)
	}
	if want := l.Height(); f.Height != want {
		t.Errorf("Height = %v, want %v", f.Height, want)
	}
	if got := f.Cells[1].Right(); got != 600 {
		t.Errorf("Right() = %v, want 600", got)
	}
	if got := f.Cells[4].Bottom(); got != 810 {
		t.Errorf("Bottom() = %v, want 810", got)
	}
}

func TestPlaceOversizedWidensFrame(t *testing.T) {
	l, err := justify.Pack([]justify.Item{{ID: "pano", Ratio: 10}}, 600, 200, 10)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	if f := Place(l); f.Width != 2000 {
		t.Errorf("Width = %v, want 2000", f.Width)
	}
}

func TestPlaceEmpty(t *testing.T) {
	f := Place(justify.Layout{ContainerWidth: 800, RowHeight: 200, Gap: 8})
	if len(f.Cells) != 0 || f.Height != 0 || f.Width != 800 {
		t.Errorf("empty layout placed as %+v", f)
	}
}

type recordingSurface struct {
	began, ended bool
	w, h         float64
	ids          []string
	failOn       string
}

func (s *recordingSurface) Begin(w, h float64) error {
	s.began, s.w, s.h = true, w, h
	return nil
}

func (s *recordingSurface) Place(c Cell) error {
	if c.ID == s.failOn {
		return errors.New("boom")
	}
	s.ids = append(s.ids, c.ID)
	return nil
}

func (s *recordingSurface) End() error {
	s.ended = true
	return nil
}

func TestApply(t *testing.T) {
	l, err := justify.Pack(uniform(4, 1.5), 900, 200, 8)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}

	s := &recordingSurface{}
	if err := Apply(l, s); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if !s.began || !s.ended {
		t.Error("Begin and End must both be called")
	}
	if s.w != 900 || s.h != l.Height() {
		t.Errorf("Begin(%v, %v), want (900, %v)", s.w, s.h, l.Height())
	}
	if got := len(s.ids); got != 4 {
		t.Errorf("placed %d cells, want 4", got)
	}
	for i, id := range s.ids {
		if id != l.Items()[i].ID {
			t.Errorf("cell %d = %s, want row order", i, id)
		}
	}
}

func TestApplyStopsOnError(t *testing.T) {
	l, _ := justify.Pack(uniform(4, 1.0), 900, 200, 8)
	s := &recordingSurface{failOn: "b"}
	if err := Apply(l, s); err == nil {
		t.Fatal("expected error")
	}
	if s.ended {
		t.Error("End must not be called after a failed Place")
	}
	if len(s.ids) != 1 {
		t.Errorf("placed %d cells before failure, want 1", len(s.ids))
	}
}
