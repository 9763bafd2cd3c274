package justify

import (
	"math"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/justified/pkg/breakpoint"
	"github.com/matzehuels/justified/pkg/errors"
)

func uniform(n int, ratio float64) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ID: string(rune('a' + i)), Ratio: ratio}
	}
	return items
}

func ratios(rs ...float64) []Item {
	items := make([]Item, len(rs))
	for i, r := range rs {
		items[i] = Item{ID: string(rune('a' + i)), Ratio: r}
	}
	return items
}

func widths(r Row) []int {
	ws := make([]int, len(r.Cells))
	for i, c := range r.Cells {
		ws[i] = c.Width
	}
	return ws
}

func rowSizes(l Layout) []int {
	sizes := make([]int, len(l.Rows))
	for i, r := range l.Rows {
		sizes[i] = r.Len()
	}
	return sizes
}

func TestPackSingleFinalRow(t *testing.T) {
	l, err := Pack(ratios(1.5, 1.0, 2.0), 1000, 200, 16)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	if len(l.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(l.Rows))
	}
	row := l.Rows[0]
	if !row.Final {
		t.Error("only row should be final")
	}
	if row.Height != 200 {
		t.Errorf("final row height = %d, want 200", row.Height)
	}
	if got, want := widths(row), []int{300, 200, 400}; !slices.Equal(got, want) {
		t.Errorf("widths = %v, want %v", got, want)
	}
}

func TestPackInteriorRows(t *testing.T) {
	l, err := Pack(uniform(10, 1.0), 600, 200, 10)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	if got, want := rowSizes(l), []int{2, 2, 2, 2, 2}; !slices.Equal(got, want) {
		t.Fatalf("row sizes = %v, want %v", got, want)
	}
	for i, row := range l.Rows[:4] {
		if row.Final {
			t.Errorf("row %d marked final", i)
		}
		if row.Height != 295 {
			t.Errorf("row %d height = %d, want 295", i, row.Height)
		}
		if got := row.Width(l.Gap); got != 600 {
			t.Errorf("row %d width = %v, want 600", i, got)
		}
	}
	final, ok := l.FinalRow()
	if !ok {
		t.Fatal("expected a final row")
	}
	if final.Height != 200 {
		t.Errorf("final row height = %d, want 200", final.Height)
	}
}

func TestPackFlushAfter(t *testing.T) {
	l, err := Pack(uniform(10, 1.0), 600, 200, 10, WithPolicy(FlushAfter))
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	if got, want := rowSizes(l), []int{3, 3, 3, 1}; !slices.Equal(got, want) {
		t.Fatalf("row sizes = %v, want %v", got, want)
	}
	first := l.Rows[0]
	if first.Height != 193 {
		t.Errorf("interior height = %d, want 193", first.Height)
	}
	// 193 is exact for ratio 1, so the leftover unit goes to the first cell.
	if got, want := widths(first), []int{194, 193, 193}; !slices.Equal(got, want) {
		t.Errorf("interior widths = %v, want %v", got, want)
	}
	if got := first.Width(l.Gap); got != 600 {
		t.Errorf("interior width = %v, want 600", got)
	}
	if final := l.Rows[3]; !final.Final || final.Height != 200 {
		t.Errorf("final row = %+v, want final at height 200", final)
	}
}

func TestPackFlushAfterExactFit(t *testing.T) {
	// The last item closes an interior row, leaving nothing for a final row.
	l, err := Pack(uniform(4, 1.0), 400, 200, 0, WithPolicy(FlushAfter))
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	if got, want := rowSizes(l), []int{2, 2}; !slices.Equal(got, want) {
		t.Fatalf("row sizes = %v, want %v", got, want)
	}
	if _, ok := l.FinalRow(); ok {
		t.Error("expected no final row")
	}
}

func TestPackMaxPerRow(t *testing.T) {
	l, err := Pack(uniform(10, 0.5), 2000, 200, 0, WithMaxPerRow(3))
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	if got, want := rowSizes(l), []int{3, 3, 3, 1}; !slices.Equal(got, want) {
		t.Errorf("row sizes = %v, want %v", got, want)
	}
	if got := l.Rows[0].Height; got != 1333 {
		t.Errorf("interior height = %d, want 1333", got)
	}
}

func TestPackOversizedItem(t *testing.T) {
	t.Run("alone", func(t *testing.T) {
		l, err := Pack(ratios(10), 600, 200, 10)
		if err != nil {
			t.Fatalf("Pack() error: %v", err)
		}
		if len(l.Rows) != 1 || l.Rows[0].Height != 200 {
			t.Fatalf("rows = %+v, want one row at height 200", l.Rows)
		}
		if got := l.Rows[0].Cells[0].Width; got != 2000 {
			t.Errorf("width = %d, want 2000 (no forced shrink)", got)
		}
	})

	t.Run("followed by items", func(t *testing.T) {
		l, err := Pack(ratios(10, 1, 1), 600, 200, 10)
		if err != nil {
			t.Fatalf("Pack() error: %v", err)
		}
		if got, want := rowSizes(l), []int{1, 2}; !slices.Equal(got, want) {
			t.Fatalf("row sizes = %v, want %v", got, want)
		}
		lone := l.Rows[0]
		if lone.Final || lone.Height != 60 || lone.Cells[0].Width != 600 {
			t.Errorf("lone interior row = %+v, want height 60 width 600", lone)
		}
	})
}

func TestPackGrowthCap(t *testing.T) {
	t.Run("interior clamped", func(t *testing.T) {
		l, err := Pack(ratios(4, 4), 1000, 200, 0, WithGrowthCap(1.1))
		if err != nil {
			t.Fatalf("Pack() error: %v", err)
		}
		if got := l.Rows[0].Height; got != 220 {
			t.Errorf("interior height = %d, want 220", got)
		}
		if got := l.Rows[0].Cells[0].Width; got != 880 {
			t.Errorf("interior width = %d, want 880", got)
		}
		if got := l.Rows[1].Height; got != 200 {
			t.Errorf("final height = %d, want 200", got)
		}
	})

	t.Run("final shrinks to fit", func(t *testing.T) {
		l, err := Pack(ratios(1, 6), 1000, 200, 0, WithGrowthCap(DefaultGrowthCap))
		if err != nil {
			t.Fatalf("Pack() error: %v", err)
		}
		if got := l.Rows[0].Height; got != 260 {
			t.Errorf("interior height = %d, want 260", got)
		}
		if got := l.Rows[1].Height; got != 167 {
			t.Errorf("final height = %d, want 167", got)
		}
	})

	t.Run("uncapped matches default", func(t *testing.T) {
		items := ratios(1.2, 0.8, 1.5, 1.0, 0.7)
		a, _ := Pack(items, 900, 200, 8)
		b, _ := Pack(items, 900, 200, 8, WithGrowthCap(0))
		if !reflect.DeepEqual(a, b) {
			t.Error("zero growth cap should behave like no cap")
		}
	})
}

func TestPackEmpty(t *testing.T) {
	l, err := Pack(nil, 800, 200, 8)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	if len(l.Rows) != 0 || l.Len() != 0 || l.Height() != 0 {
		t.Errorf("empty input produced %+v", l)
	}
	if l.ContainerWidth != 800 || l.RowHeight != 200 || l.Gap != 8 {
		t.Errorf("layout parameters not recorded: %+v", l)
	}
}

func TestPackInvalidInput(t *testing.T) {
	ok := ratios(1, 1)
	tests := []struct {
		name      string
		items     []Item
		width     float64
		rowHeight float64
		gap       float64
		opts      []Option
	}{
		{"zero width", ok, 0, 200, 8, nil},
		{"negative width", ok, -100, 200, 8, nil},
		{"NaN width", ok, math.NaN(), 200, 8, nil},
		{"infinite width", ok, math.Inf(1), 200, 8, nil},
		{"zero width empty input", nil, 0, 200, 8, nil},
		{"zero row height", ok, 800, 0, 8, nil},
		{"negative gap", ok, 800, 200, -1, nil},
		{"zero ratio", ratios(1, 0), 800, 200, 8, nil},
		{"negative ratio", ratios(-1), 800, 200, 8, nil},
		{"NaN ratio", ratios(math.NaN()), 800, 200, 8, nil},
		{"infinite ratio", ratios(math.Inf(1)), 800, 200, 8, nil},
		{"negative max per row", ok, 800, 200, 8, []Option{WithMaxPerRow(-1)}},
		{"growth cap below one", ok, 800, 200, 8, []Option{WithGrowthCap(0.5)}},
		{"unknown policy", ok, 800, 200, 8, []Option{WithPolicy(Policy(7))}},
		{"huge ratio", ratios(1, 1e300), 800, 200, 8, nil},
		{"tiny ratio", ratios(1e-300), 800, 200, 8, nil},
		{"item wider than max dimension", ratios(MaxDimension), 800, 2, 0, nil},
		{"huge width", ok, 1 << 32, 200, 8, nil},
		{"huge row height", ok, 800, 1 << 32, 8, nil},
		{"item too wide for the container", ratios(5000, 1), 1000, 1, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Pack(tt.items, tt.width, tt.rowHeight, tt.gap, tt.opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
			}
			if len(l.Rows) != 0 {
				t.Error("no partial layout may be returned")
			}
		})
	}
}

func TestPackResponsive(t *testing.T) {
	items := uniform(6, 1.5)
	l, err := PackResponsive(items, 1000, breakpoint.Default)
	if err != nil {
		t.Fatalf("PackResponsive() error: %v", err)
	}
	if l.RowHeight != 200 || l.Gap != 12 {
		t.Errorf("resolved (%v, %v), want (200, 12)", l.RowHeight, l.Gap)
	}

	if _, err := PackResponsive(items, 0, breakpoint.Default); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("zero width: got %v, want INVALID_INPUT", err)
	}
	if _, err := PackResponsive(items, 1000, breakpoint.Table{}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("empty table: got %v, want INVALID_CONFIG", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", FlushBefore, false},
		{"before", FlushBefore, false},
		{"After", FlushAfter, false},
		{"flush-after", FlushAfter, false},
		{"sideways", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && got.String() == "" {
			t.Errorf("Policy(%d).String() is empty", got)
		}
	}
}

// randomCase draws a gallery of photos: mostly ratios between portrait (1:2)
// and landscape (2:1), with the occasional panorama (3:1 to 10:1), and
// integer row heights.
func randomCase(rng *rand.Rand) (items []Item, width, rowHeight, gap float64) {
	n := 1 + rng.IntN(60)
	items = make([]Item, n)
	for i := range items {
		r := 0.5 + 1.5*rng.Float64()
		if rng.IntN(8) == 0 {
			r = 3 + 7*rng.Float64()
		}
		items[i] = Item{ID: string(rune('A' + i)), Ratio: r}
	}
	width = float64(300 + rng.IntN(1700))
	rowHeight = float64(100 + rng.IntN(200))
	gap = float64(rng.IntN(17))
	return items, width, rowHeight, gap
}

func TestPackProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for iter := 0; iter < 500; iter++ {
		items, width, rowHeight, gap := randomCase(rng)
		for _, policy := range []Policy{FlushBefore, FlushAfter} {
			l, err := Pack(items, width, rowHeight, gap, WithPolicy(policy))
			if err != nil {
				t.Fatalf("iter %d: Pack() error: %v", iter, err)
			}

			if got := l.Items(); !slices.Equal(got, items) {
				t.Fatalf("iter %d %v: flatten(layout) != items", iter, policy)
			}

			for ri, row := range l.Rows {
				if row.Len() == 0 {
					t.Fatalf("iter %d %v: row %d is empty", iter, policy, ri)
				}
				if final := ri == len(l.Rows)-1; row.Final && !final {
					t.Errorf("iter %d %v: row %d final but not last", iter, policy, ri)
				}
				// Rounding the height moves the row by up to half its ratio
				// sum; each cell absorbs at most its share of that.
				tolerance := 1.0
				if !row.Final {
					tolerance += math.Ceil((row.RatioSum()/2 + 0.5) / float64(row.Len()))
				}
				for _, c := range row.Cells {
					if c.Height != row.Height {
						t.Errorf("iter %d: cell height %d != row height %d", iter, c.Height, row.Height)
					}
					if d := math.Abs(float64(c.Width) - float64(row.Height)*c.Ratio); d >= tolerance {
						t.Errorf("iter %d %v: cell %s off aspect by %.2f", iter, policy, c.ID, d)
					}
				}
				if row.Final {
					if row.Height != int(rowHeight) {
						t.Errorf("iter %d %v: final height %d, want %v", iter, policy, row.Height, rowHeight)
					}
					continue
				}
				if d := math.Abs(row.Width(gap) - width); d > 0.5 {
					t.Errorf("iter %d %v: interior row %d width %v, container %v", iter, policy, ri, row.Width(gap), width)
				}
			}
		}
	}
}

func TestPackPanoramaFillsWidth(t *testing.T) {
	tests := []struct {
		name      string
		items     []Item
		width     float64
		rowHeight float64
		gap       float64
	}{
		{"three wide panoramas", ratios(7.3, 7.3, 7.3), 4050, 200, 0},
		{"panoramas with gap", ratios(9.1, 8.7, 6.4, 1), 3000, 150, 12},
		{"lone oversized panorama", ratios(10, 1), 900, 200, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Pack(tt.items, tt.width, tt.rowHeight, tt.gap)
			if err != nil {
				t.Fatalf("Pack() error: %v", err)
			}
			for ri, row := range l.Rows {
				if row.Final {
					continue
				}
				if d := math.Abs(row.Width(tt.gap) - tt.width); d > 0.5 {
					t.Errorf("row %d widths %v span %v, container %v", ri, widths(row), row.Width(tt.gap), tt.width)
				}
			}
		})
	}
}

func TestDistribute(t *testing.T) {
	// height 277, ratio 7.3: exact 2022.1, rounded 2022
	cells := []Cell{
		{Item: Item{ID: "a", Ratio: 7.3}, Width: 2022, Height: 277},
		{Item: Item{ID: "b", Ratio: 7.3}, Width: 2022, Height: 277},
	}
	distribute(cells, 4050)
	if got := cells[0].Width + cells[1].Width; got != 4050 {
		t.Errorf("widths %d + %d = %d, want 4050", cells[0].Width, cells[1].Width, got)
	}
	if d := cells[0].Width - cells[1].Width; d < -1 || d > 1 {
		t.Errorf("leftover not spread evenly: %d, %d", cells[0].Width, cells[1].Width)
	}

	// never below one pixel
	tiny := []Cell{{Item: Item{ID: "a", Ratio: 1}, Width: 1, Height: 1}}
	distribute(tiny, -10)
	if tiny[0].Width != 1 {
		t.Errorf("width shrank to %d", tiny[0].Width)
	}
}

func TestPackDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for iter := 0; iter < 50; iter++ {
		items, width, rowHeight, gap := randomCase(rng)
		a, errA := Pack(items, width, rowHeight, gap, WithMaxPerRow(4))
		b, errB := Pack(items, width, rowHeight, gap, WithMaxPerRow(4))
		if errA != nil || errB != nil {
			t.Fatalf("Pack() errors: %v, %v", errA, errB)
		}
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("iter %d: identical inputs produced different layouts", iter)
		}
	}
}

func TestPackMonotonicMaxPerRow(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for iter := 0; iter < 200; iter++ {
		items, width, rowHeight, gap := randomCase(rng)
		unlimited, err := Pack(items, width, rowHeight, gap)
		if err != nil {
			t.Fatalf("Pack() error: %v", err)
		}
		prev := math.MaxInt
		for m := 1; m <= 10; m++ {
			l, err := Pack(items, width, rowHeight, gap, WithMaxPerRow(m))
			if err != nil {
				t.Fatalf("Pack() error: %v", err)
			}
			if len(l.Rows) > prev {
				t.Errorf("iter %d: maxPerRow %d gave %d rows, %d gave %d", iter, m, len(l.Rows), m-1, prev)
			}
			if len(l.Rows) < len(unlimited.Rows) {
				t.Errorf("iter %d: maxPerRow %d gave fewer rows than unlimited", iter, m)
			}
			prev = len(l.Rows)
		}
	}
}

func TestLayoutHelpers(t *testing.T) {
	l, err := Pack(uniform(10, 1.0), 600, 200, 10)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	if l.Len() != 10 {
		t.Errorf("Len() = %d, want 10", l.Len())
	}
	// four interior rows at 295, final at 200, four gaps of 10
	if got, want := l.Height(), float64(4*295+200+4*10); got != want {
		t.Errorf("Height() = %v, want %v", got, want)
	}
	if got := l.Rows[0].RatioSum(); got != 2 {
		t.Errorf("RatioSum() = %v, want 2", got)
	}
	if got := (Row{}).Width(10); got != 0 {
		t.Errorf("empty Row.Width() = %v, want 0", got)
	}
}

func BenchmarkPack(b *testing.B) {
	rng := rand.New(rand.NewPCG(7, 8))
	items := make([]Item, 10000)
	for i := range items {
		items[i] = Item{Ratio: 0.5 + 1.5*rng.Float64()}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Pack(items, 1440, 240, 16); err != nil {
			b.Fatal(err)
		}
	}
}
