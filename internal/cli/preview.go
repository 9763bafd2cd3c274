package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/justified/pkg/justify"
	"github.com/matzehuels/justified/pkg/pipeline"
	"github.com/matzehuels/justified/pkg/render"
	"github.com/matzehuels/justified/pkg/render/sink"
)

const (
	// defaultColumnWidth is how many container pixels one terminal column shows.
	defaultColumnWidth = 8.0

	// headerLines is the height of the preview header.
	headerLines = 3
)

// Preview styles
var (
	previewStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	previewErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// previewCommand creates the preview command, a live terminal view of the
// layout that re-packs on every resize.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		noCache     bool
		columnWidth float64
		flags       layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "preview [gallery.json|dir]",
		Short: "Preview the layout in the terminal, re-packing on resize",
		Long: `Preview the layout in the terminal, re-packing on resize.

The terminal width stands in for the container width: every column shows
--column-width pixels. Resize the terminal to watch rows reflow as the
breakpoints change. Bursts of resize events are coalesced; only the last one
triggers a re-layout.

Keys: ↑/↓ scroll  +/- zoom  p toggle policy  q quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !(columnWidth > 0) {
				return fmt.Errorf("column width must be positive, got %v", columnWidth)
			}
			opts := c.options(cmd, flags)
			if err := opts.ValidateForLayout(); err != nil {
				return err
			}

			in, err := loadInput(args[0])
			if err != nil {
				return err
			}
			var items []justify.Item
			if in.Document != nil {
				items = in.Document.Layout().Items()
			} else {
				runner, err := c.newRunner(ctx, noCache)
				if err != nil {
					return fmt.Errorf("initialize runner: %w", err)
				}
				items, _, err = runner.Resolve(ctx, in.Manifest, opts)
				runner.Close()
				if err != nil {
					return fmt.Errorf("resolve: %w", err)
				}
			}

			model := NewPreviewModel(items, opts, c.Config.Server.Debounce.Std(), columnWidth)
			model.Title = in.Manifest.Title
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&columnWidth, "column-width", defaultColumnWidth, "container pixels per terminal column")
	flags.register(cmd, 0)
	_ = cmd.Flags().MarkHidden("width") // the terminal sets the width

	return cmd
}

// =============================================================================
// PreviewModel - Live re-layout on terminal resize
// =============================================================================

// relayoutMsg asks the model to re-pack. Only the message carrying the
// latest generation is acted on, which coalesces resize bursts.
type relayoutMsg struct{ gen int }

// PreviewModel is the bubbletea model of the terminal preview.
type PreviewModel struct {
	Title string

	items       []justify.Item
	opts        pipeline.Options
	debounce    time.Duration
	columnWidth float64

	cols, lines int
	gen         int // bumped on every resize
	passes      int // layouts computed so far
	offset      int // first visible row
	layout      justify.Layout
	err         error
}

// NewPreviewModel creates a preview of items. The first layout is computed
// once the terminal reports its size.
func NewPreviewModel(items []justify.Item, opts pipeline.Options, debounce time.Duration, columnWidth float64) PreviewModel {
	opts.SetLayoutDefaults()
	return PreviewModel{
		items:       items,
		opts:        opts,
		debounce:    debounce,
		columnWidth: columnWidth,
	}
}

func (m PreviewModel) Init() tea.Cmd {
	return nil
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.lines = msg.Width, msg.Height
		m.gen++
		if m.debounce <= 0 {
			m.relayout()
			return m, nil
		}
		gen := m.gen
		return m, tea.Tick(m.debounce, func(time.Time) tea.Msg { return relayoutMsg{gen: gen} })

	case relayoutMsg:
		if msg.gen == m.gen {
			m.relayout()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "down", "j":
			if m.offset < len(m.layout.Rows)-1 {
				m.offset++
			}
		case "+", "=":
			m.columnWidth = math.Max(1, m.columnWidth/2)
			m.relayout()
		case "-", "_":
			m.columnWidth *= 2
			m.relayout()
		case "p":
			if m.opts.Policy == justify.FlushAfter.String() {
				m.opts.Policy = justify.FlushBefore.String()
			} else {
				m.opts.Policy = justify.FlushAfter.String()
			}
			m.relayout()
		}
	}
	return m, nil
}

// containerWidth is the pixel width the terminal stands in for.
func (m PreviewModel) containerWidth() float64 {
	return float64(m.cols) * m.columnWidth
}

func (m *PreviewModel) relayout() {
	if m.cols <= 0 {
		return
	}
	m.opts.Width = m.containerWidth()
	m.layout, m.err = pipeline.ComputeLayout(m.items, m.opts)
	m.passes++
	m.offset = min(m.offset, max(0, len(m.layout.Rows)-1))
}

func (m PreviewModel) View() string {
	var b strings.Builder

	title := m.Title
	if title == "" {
		title = "Preview"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(previewStatusStyle.Render(m.status()))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(previewErrorStyle.Render(m.err.Error()))
		return b.String()
	}
	if m.passes == 0 {
		b.WriteString(StyleDim.Render("waiting for terminal size..."))
		return b.String()
	}

	budget := m.lines - headerLines
	for _, row := range m.drawRows() {
		h := lipgloss.Height(row)
		if budget < h {
			break
		}
		b.WriteString(row)
		b.WriteString("\n")
		budget -= h
	}
	return b.String()
}

func (m PreviewModel) status() string {
	if m.passes == 0 {
		return "↑/↓ scroll  +/- zoom  p policy  q quit"
	}
	return fmt.Sprintf("%s wide · row %s · gap %s · %s · %s · %s/col",
		formatPx(m.layout.ContainerWidth), formatPx(m.layout.RowHeight), formatPx(m.layout.Gap),
		plural(len(m.layout.Rows), "row"), m.opts.Policy, formatPx(m.columnWidth))
}

// drawRows renders each visible layout row as colored blocks. Cell edges are
// rounded to columns from their absolute positions, so rows stay aligned.
func (m PreviewModel) drawRows() []string {
	frame := render.Place(m.layout)
	lineHeight := m.columnWidth * 2 // terminal cells are about twice as tall as wide
	gapLines := int(math.Round(m.layout.Gap / lineHeight))

	byRow := make([][]render.Cell, len(m.layout.Rows))
	for _, c := range frame.Cells {
		byRow[c.Row] = append(byRow[c.Row], c)
	}

	var out []string
	for ri := m.offset; ri < len(byRow); ri++ {
		lines := max(1, int(math.Round(float64(m.layout.Rows[ri].Height)/lineHeight)))
		var blocks []string
		end := 0
		for _, c := range byRow[ri] {
			start := int(math.Round(c.X / m.columnWidth))
			stop := int(math.Round(c.Right() / m.columnWidth))
			if start > end {
				blocks = append(blocks, strings.Repeat(" ", start-end))
			}
			if w := stop - start; w > 0 {
				blocks = append(blocks, lipgloss.NewStyle().
					Width(w).
					Height(lines).
					Foreground(colorWhite).
					Background(lipgloss.Color(sink.PlaceholderHex(c.ID))).
					Render(truncate(c.ID, w)))
			}
			end = max(end, stop)
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
		if ri > m.offset && gapLines > 0 {
			row = strings.Repeat("\n", gapLines) + row
		}
		out = append(out, row)
	}
	return out
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
