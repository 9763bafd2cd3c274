package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/justified/pkg/justify"
	"github.com/matzehuels/justified/pkg/pipeline"
)

var previewItems = []justify.Item{
	{ID: "a", Ratio: 1.5},
	{ID: "b", Ratio: 1},
	{ID: "c", Ratio: 0.75},
	{ID: "d", Ratio: 2},
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m PreviewModel, msg tea.Msg) (PreviewModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(PreviewModel)
	if !ok {
		t.Fatalf("Update returned %T, want PreviewModel", next)
	}
	return pm, cmd
}

func TestPreviewDebouncesResize(t *testing.T) {
	m := NewPreviewModel(previewItems, pipeline.Options{}, 50*time.Millisecond, 8)

	m, cmd := update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if cmd == nil {
		t.Fatal("resize should schedule a re-layout")
	}
	if m.passes != 0 {
		t.Fatalf("passes = %d before the debounce fired, want 0", m.passes)
	}

	// A second resize supersedes the first.
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, _ = update(t, m, relayoutMsg{gen: 1})
	if m.passes != 0 {
		t.Errorf("stale relayout ran: passes = %d", m.passes)
	}

	m, _ = update(t, m, relayoutMsg{gen: m.gen})
	if m.passes != 1 {
		t.Fatalf("passes = %d, want 1", m.passes)
	}
	if got := m.layout.ContainerWidth; got != 120*8 {
		t.Errorf("ContainerWidth = %v, want %v", got, 120*8)
	}
	if m.layout.Len() != len(previewItems) {
		t.Errorf("layout holds %d items, want %d", m.layout.Len(), len(previewItems))
	}
}

func TestPreviewWithoutDebounce(t *testing.T) {
	m := NewPreviewModel(previewItems, pipeline.Options{}, 0, 10)

	m, cmd := update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	if cmd != nil {
		t.Error("resize without debounce should not schedule anything")
	}
	if m.passes != 1 || m.layout.ContainerWidth != 800 {
		t.Errorf("passes = %d, width = %v; want an immediate layout at 800", m.passes, m.layout.ContainerWidth)
	}
}

func TestPreviewKeys(t *testing.T) {
	m := NewPreviewModel(previewItems, pipeline.Options{}, 0, 8)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	if m.opts.Policy != justify.FlushBefore.String() {
		t.Fatalf("default policy = %q", m.opts.Policy)
	}
	m, _ = update(t, m, keyMsg("p"))
	if m.opts.Policy != justify.FlushAfter.String() {
		t.Errorf("policy after toggle = %q, want after", m.opts.Policy)
	}
	if m.passes != 2 {
		t.Errorf("policy toggle should re-layout, passes = %d", m.passes)
	}

	m, _ = update(t, m, keyMsg("+"))
	if m.columnWidth != 4 || m.layout.ContainerWidth != 400 {
		t.Errorf("zoom in: column width %v, container %v", m.columnWidth, m.layout.ContainerWidth)
	}
	m, _ = update(t, m, keyMsg("-"))
	if m.columnWidth != 8 {
		t.Errorf("zoom out: column width %v, want 8", m.columnWidth)
	}

	_, cmd := update(t, m, keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestPreviewScrollBounds(t *testing.T) {
	opts := pipeline.Options{MaxPerRow: 1}
	m := NewPreviewModel(previewItems, opts, 0, 8)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.offset != 0 {
		t.Errorf("offset = %d after scrolling above the top", m.offset)
	}
	for range 10 {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if want := len(m.layout.Rows) - 1; m.offset != want {
		t.Errorf("offset = %d, want %d", m.offset, want)
	}
}

func TestPreviewView(t *testing.T) {
	m := NewPreviewModel(previewItems, pipeline.Options{}, 0, 8)
	m.Title = "Holiday"

	if v := m.View(); !strings.Contains(v, "waiting for terminal size") {
		t.Errorf("View before sizing = %q", v)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 60})
	v := m.View()
	for _, want := range []string{"Holiday", "800px wide", "row"} {
		if !strings.Contains(v, want) {
			t.Errorf("View missing %q:\n%s", want, v)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"photo.jpg", 20, "photo.jpg"},
		{"photo.jpg", 6, "photo…"},
		{"photo.jpg", 1, "p"},
		{"photo.jpg", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.s, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}
