package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/justified/pkg/breakpoint"
)

// breakpointsCommand creates the breakpoints command for inspecting the table.
func (c *CLI) breakpointsCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "breakpoints",
		Short: "Show the breakpoint table in effect",
		Long: `Show the breakpoint table in effect.

Each breakpoint applies from its minimum container width up to the next one.
With --width, the entry that applies to that width is highlighted and the
resolved row height and gap are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, flags)
			opts.SetLayoutDefaults()
			t, err := opts.Table()
			if err != nil {
				return err
			}
			width := -1.0
			if cmd.Flags().Changed("width") {
				if width = flags.width; !(width >= 0) {
					return fmt.Errorf("width must be non-negative, got %v", width)
				}
			}
			fmt.Println(breakpointTable(t, width))
			if width >= 0 {
				b := t.Lookup(width)
				printNewline()
				printKeyValue("width", formatPx(width))
				printKeyValue("row height", formatPx(b.RowHeight))
				printKeyValue("gap", formatPx(b.Gap))
			}
			return nil
		},
	}

	flags.register(cmd, 0)

	return cmd
}

// breakpointTable renders t as a table. The entry that applies to width is
// highlighted; pass a negative width to highlight nothing.
func breakpointTable(t breakpoint.Table, width float64) string {
	active := -1
	if width >= 0 {
		active = slices.Index(t, t.Lookup(width))
	}

	rows := make([][]string, len(t))
	for i, b := range t {
		upTo := "∞"
		if i+1 < len(t) {
			upTo = formatPx(t[i+1].MinWidth)
		}
		marker := " "
		if i == active {
			marker = "▸"
		}
		rows[i] = []string{marker, formatPx(b.MinWidth), upTo, formatPx(b.RowHeight), formatPx(b.Gap)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "From", "Below", "Row height", "Gap").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col > 0 {
				base = base.Align(lipgloss.Right)
			}
			if row == active {
				return base.Foreground(colorCyan).Bold(true)
			}
			return base.Foreground(colorWhite)
		}).
		Render()
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
