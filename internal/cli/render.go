package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	service "github.com/crashcompass/compass/internal/app"
	"github.com/crashcompass/compass/internal/domain/attribution"
)

// Console colors.
var (
	criticalColor  = color.New(color.FgRed, color.Bold)
	elevatedColor  = color.New(color.FgYellow)
	lowColor       = color.New(color.FgGreen)
	riskColor      = color.New(color.FgRed)
	stabilityColor = color.New(color.FgGreen)
)

// statusColor maps a band color class to a console color.
func statusColor(colorClass string) *color.Color {
	switch {
	case strings.Contains(colorClass, "red"):
		return criticalColor
	case strings.Contains(colorClass, "orange"), strings.Contains(colorClass, "yellow"):
		return elevatedColor
	default:
		return lowColor
	}
}

func categoryColor(category string) *color.Color {
	if category == attribution.CategoryRisk {
		return riskColor
	}
	return stabilityColor
}

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	return table
}

func renderTable(w io.Writer, headers []string, data [][]string) error {
	table := newTable(w, headers...)
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDashboard(w io.Writer, d service.Dashboard) error {
	st := d.Dial.Status
	line := fmt.Sprintf("Outlook: %d%% %s", d.Dial.Rounded, statusColor(st.ColorClass).Sprint(st.Label))
	if d.Dial.Degraded {
		line += " (score unavailable)"
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}

	if len(d.Drivers) > 0 {
		data := make([][]string, 0, len(d.Drivers))
		for _, drv := range d.Drivers {
			data = append(data, []string{
				drv.DisplayName,
				strconv.FormatFloat(drv.Value, 'f', -1, 64),
				strconv.FormatFloat(drv.Shap, 'f', 4, 64),
				categoryColor(drv.Category).Sprint(drv.Impact),
			})
		}
		if err := renderTable(w, []string{"Driver", "Value", "Shap", "Impact"}, data); err != nil {
			return err
		}
	}

	data := make([][]string, 0, len(d.Categories))
	for _, c := range d.Categories {
		hero := "-"
		if c.Hero != nil {
			hero = c.Hero.Name
		}
		data = append(data, []string{c.Title, c.Slug, c.ScoreLabel, hero})
	}
	return renderTable(w, []string{"Category", "Slug", "Outlook", "Hero"}, data)
}

func printCategory(w io.Writer, p service.CategoryPage) error {
	if _, err := fmt.Fprintf(w, "%s\nDriver: %s %s\n", p.Title,
		categoryColor(p.Driver.Category).Sprint(p.Driver.Label.Name), p.Driver.Text); err != nil {
		return err
	}
	data := make([][]string, 0, len(p.Charts))
	for _, c := range p.Charts {
		latest, date, rng := "-", "-", "-"
		if c.Latest != nil {
			latest, date = c.Latest.Label, c.Latest.Date
		}
		if c.Axis != nil {
			rng = c.Axis.MinLabel + " .. " + c.Axis.MaxLabel
		}
		data = append(data, []string{c.SeriesID, c.Title, latest, date, rng})
	}
	if err := renderTable(w, []string{"Series", "Title", "Latest", "Date", "Range"}, data); err != nil {
		return err
	}
	if len(p.Missing) > 0 {
		_, err := fmt.Fprintf(w, "Unavailable: %s\n", strings.Join(p.Missing, ", "))
		return err
	}
	return nil
}

func printHistory(w io.Writer, h service.History) error {
	if n := len(h.Points); n > 0 {
		last := h.Points[n-1]
		if _, err := fmt.Fprintf(w, "Latest probability: %s%% (%s)\n", last.Percent, last.Date); err != nil {
			return err
		}
	}
	data := make([][]string, 0, len(h.Intervals))
	for _, iv := range h.Intervals {
		data = append(data, []string{iv.Start, iv.End})
	}
	return renderTable(w, []string{"Recession start", "Recession end"}, data)
}

func printExplanation(w io.Writer, e attribution.Explanation) error {
	_, err := fmt.Fprintf(w, "%s [%s] %s\n", e.Label.Name, categoryColor(e.Category).Sprint(e.Category), e.Text)
	return err
}

func printStats(w io.Writer, s service.Stats) error {
	return renderTable(w, []string{"Key", "Value"}, [][]string{
		{"started", strconv.FormatBool(s.Started)},
		{"upstream_url", s.UpstreamURL},
		{"cache_ttl", s.CacheTTL},
		{"cached_series", strconv.Itoa(s.CachedSeries)},
		{"sparkline_window", strconv.Itoa(s.SparklineWindow)},
		{"top_contributors", strconv.Itoa(s.TopContributors)},
		{"warm_interval", s.WarmInterval},
		{"refresh_pending", strconv.Itoa(s.RefreshPending)},
		{"uptime", s.Uptime},
	})
}
