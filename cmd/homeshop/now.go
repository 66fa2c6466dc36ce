package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/githubixx/homeshop-go/internal/adapters/primary/presenter"
	"github.com/githubixx/homeshop-go/internal/application/services"
)

const nowTimeout = 30 * time.Second

func newNowCmd(flags *globalFlags) *cobra.Command {
	var filter services.DashboardFilter

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Print what is live and coming up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}
			injector := setupDI(cfg, logger)
			dashboard := do.MustInvoke[*services.DashboardService](injector)
			zone := do.MustInvoke[*time.Location](injector)

			ctx, cancel := context.WithTimeout(cmd.Context(), nowTimeout)
			defer cancel()
			if err := dashboard.Refresh(ctx); err != nil {
				return err
			}
			v, err := dashboard.Snapshot(ctx, filter)
			if err != nil {
				return err
			}
			renderDashboard(cmd.OutOrStdout(), presenter.NewDashboard(v, zone))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Date, "date", "", "day to show, YYYY-MM-DD (today or tomorrow)")
	cmd.Flags().StringVar(&filter.ChannelCode, "channel", "", "channel code")
	cmd.Flags().StringVar(&filter.Keyword, "keyword", "", "title keyword")
	cmd.Flags().StringSliceVar(&filter.Categories, "category", nil, "categories")
	return cmd
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#101F38"))
	liveStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935"))
	headingStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	cellStyle    = lipgloss.NewStyle().PaddingRight(2)
)

func renderDashboard(w io.Writer, d presenter.Dashboard) {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("홈쇼핑 편성표 %s", d.Date)))
	sb.WriteString(" ")
	sb.WriteString(mutedStyle.Render("기준 " + d.Reference.Format("15:04:05") + " KST"))
	sb.WriteString("\n")
	if d.Error != "" {
		sb.WriteString(liveStyle.Render("! " + d.Error))
		sb.WriteString("\n")
	}

	sb.WriteString(headingStyle.Render(liveStyle.Render("● LIVE") + fmt.Sprintf(" (%d)", len(d.Live))))
	sb.WriteString("\n")
	sb.WriteString(renderTable(d.Live))

	for _, bucket := range d.Timeline {
		sb.WriteString(headingStyle.Render(bucket.Label))
		sb.WriteString("\n")
		sb.WriteString(renderTable(bucket.Broadcasts))
	}

	if len(d.Live) == 0 && len(d.Upcoming) == 0 {
		sb.WriteString(mutedStyle.Render("방송 정보가 없습니다"))
		sb.WriteString("\n")
	}

	fmt.Fprint(w, sb.String())
}

// renderTable lays broadcasts out in aligned columns.
func renderTable(bs []presenter.Broadcast) string {
	if len(bs) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(bs))
	for _, b := range bs {
		price := b.Price
		if b.Discount != "" {
			price += " (" + b.Discount + ")"
		}
		rows = append(rows, []string{b.StartLabel, string(b.Status), b.ChannelName, b.Title, price})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cellStyle.Width(widths[i] + 2).Render(cell)
		}
		sb.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
		sb.WriteString("\n")
	}
	return sb.String()
}
