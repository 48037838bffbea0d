// Package report renders a dashboard payload as a markdown summary.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/TobiSchelling/LogiDash/internal/dashboard"
	"github.com/TobiSchelling/LogiDash/internal/metrics"
	"github.com/TobiSchelling/LogiDash/internal/region"
	"github.com/TobiSchelling/LogiDash/internal/status"
	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// Report is a composed markdown summary.
type Report struct {
	Title        string
	Summary      string
	BodyMarkdown string
}

// Markdown returns the full document.
func (r *Report) Markdown() string {
	return fmt.Sprintf("# %s\n\n%s\n\n%s\n", r.Title, r.Summary, r.BodyMarkdown)
}

// Compose builds the report. parcels may be nil.
func Compose(p *dashboard.Payload, parcels *transform.ParcelGroups) *Report {
	if p == nil || !p.Success {
		msg := dashboard.ErrNoData
		if p != nil && p.Error != "" {
			msg = p.Error
		}
		return &Report{
			Title:        "Logistics report",
			Summary:      "- No data for this period.",
			BodyMarkdown: msg,
		}
	}

	title := "Logistics report"
	if dr := p.Overview.DateRange; dr.Start != "" {
		if dr.Start == dr.End {
			title += ", " + dashboard.FormatPeriod(dr.Start)
		} else {
			title += fmt.Sprintf(", %s to %s", dashboard.FormatPeriod(dr.Start), dashboard.FormatPeriod(dr.End))
		}
	}

	var sections []string
	sections = append(sections, overviewSection(p.Overview))
	if p.Lifecycle != nil {
		sections = append(sections, lifecycleSection(p.Lifecycle))
	}
	if p.Issues != nil {
		sections = append(sections, issuesSection(p.Issues))
	}
	if p.Financial != nil {
		sections = append(sections, financialSection(p.Financial))
	}
	if p.Forecast != nil {
		sections = append(sections, forecastSection(p))
	}
	if parcels != nil {
		sections = append(sections, parcelSection(parcels))
	}

	return &Report{
		Title:        title,
		Summary:      summary(p),
		BodyMarkdown: strings.Join(sections, "\n\n---\n\n"),
	}
}

func summary(p *dashboard.Payload) string {
	t := p.Overview.Totals
	bullets := []string{
		fmt.Sprintf("- %s orders worth %s over %d days", count(t.TotalOrders), peso(t.Revenue), p.Meta.DayCount),
		fmt.Sprintf("- %.2f%% delivered, %.2f%% returned", t.Stage(transform.Delivered).Percent, t.Stage(transform.Returned).Percent),
	}
	if p.Financial != nil {
		bullets = append(bullets, fmt.Sprintf("- Net revenue %s at a %.2f%% margin", peso(p.Financial.NetRevenue), p.Financial.ProfitMargin))
	}
	if p.Issues != nil && p.Issues.HasIssues {
		bullets = append(bullets, fmt.Sprintf("- %d alert(s) need attention", len(p.Issues.Alerts)))
	}
	return strings.Join(bullets, "\n")
}

func overviewSection(o *metrics.Overview) string {
	l, t := o.Latest, o.Totals
	rows := [][]string{
		{"Orders", count(l.TotalOrders), count(t.TotalOrders)},
		{"Items", count(l.TotalItems), count(t.TotalItems)},
		{"Revenue", peso(l.Revenue), peso(t.Revenue)},
		{"Shipping fees", peso(l.ShippingFee), peso(t.ShippingFee)},
		{"Ad spend", peso(l.AdSpend), peso(t.AdSpend)},
	}
	return "## Overview\n\n" + table([]string{"", "Latest (" + l.Date + ")", "Total"}, rows)
}

func lifecycleSection(lc *metrics.Lifecycle) string {
	var rows [][]string
	for _, s := range lc.Stages {
		rows = append(rows, []string{s.Label, count(s.Count), peso(s.Amount), fmt.Sprintf("%.2f%%", s.Percent)})
	}
	return "## Order lifecycle\n\n" + table([]string{"Stage", "Orders", "Amount", "Share"}, rows)
}

func issuesSection(is *metrics.Issues) string {
	if !is.HasIssues {
		return "## Alerts\n\nNo thresholds exceeded."
	}
	var lines []string
	for _, a := range is.Alerts {
		lines = append(lines, fmt.Sprintf("- **%s** (%s): %s", a.Title, a.Severity, a.Message))
	}
	return "## Alerts\n\n" + strings.Join(lines, "\n")
}

func financialSection(f *metrics.Financial) string {
	rows := [][]string{
		{"Gross revenue", peso(f.GrossRevenue), peso(f.Delivered.Revenue)},
		{"Shipping fees", peso(f.ShippingFees), peso(f.Delivered.ShippingFees)},
		{"Ad spend", peso(f.AdSpend), peso(f.Delivered.AdSpend)},
		{"Net revenue", peso(f.NetRevenue), peso(f.Delivered.NetRevenue)},
		{"Profit margin", fmt.Sprintf("%.2f%%", f.ProfitMargin), fmt.Sprintf("%.2f%%", f.Delivered.ProfitMargin)},
		{"Average order value", peso(f.AverageOrderValue), peso(f.Delivered.AverageOrderValue)},
	}
	return "## Financials\n\n" + table([]string{"", "All orders", "Delivered"}, rows) +
		fmt.Sprintf("\n\nCost per acquisition: %s", peso(f.CostPerAcquisition))
}

func forecastSection(p *dashboard.Payload) string {
	fc := p.Forecast
	var rows [][]string
	for _, pt := range fc.Forecast {
		rows = append(rows, []string{pt.Date, count(pt.ForecastOrders), peso(pt.ForecastRevenue), fmt.Sprintf("%.0f%%", pt.Confidence*100)})
	}
	return fmt.Sprintf("## Forecast\n\nBased on the last %d days: %+.2f orders and %s revenue per day.\n\n",
		fc.BasedOnDays, fc.OrdersGrowthRate, signedPeso(fc.RevenueGrowthRate)) +
		table([]string{"Date", "Orders", "Revenue", "Confidence"}, rows)
}

func parcelSection(g *transform.ParcelGroups) string {
	var rows [][]string
	for _, name := range region.Islands {
		b := g.Island(name)
		rows = append(rows, []string{
			strings.ToUpper(name[:1]) + name[1:],
			count(b.Total),
			count(b.StatusCounts[status.Delivered]),
			count(b.RTSShippers.Total()),
			peso(b.TotalCOD),
		})
	}
	rows = append(rows, []string{"All", count(g.All.Total), count(g.All.StatusCounts[status.Delivered]), count(g.All.RTSShippers.Total()), peso(g.All.TotalCOD)})

	out := "## Parcels by island\n\n" + table([]string{"Island", "Parcels", "Delivered", "RTS", "COD"}, rows)
	if top := topN(g.All.RTSShippers.Map(), 5); len(top) > 0 {
		out += "\n\n**Most returns by shipper:** " + strings.Join(top, ", ")
	}
	return out
}

func topN(m map[string]int, n int) []string {
	type kv struct {
		k string
		v int
	}
	var all []kv
	for k, v := range m {
		all = append(all, kv{k, v})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].v != all[j].v {
			return all[i].v > all[j].v
		}
		return all[i].k < all[j].k
	})
	var out []string
	for i := 0; i < len(all) && i < n; i++ {
		out = append(out, fmt.Sprintf("%s (%d)", all[i].k, all[i].v))
	}
	return out
}

func table(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(header, " | ") + " |\n|")
	for range header {
		b.WriteString(" --- |")
	}
	for _, r := range rows {
		b.WriteString("\n| " + strings.Join(r, " | ") + " |")
	}
	return b.String()
}

func count(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}

func peso(v float64) string {
	fixed := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	n, _ := strconv.Atoi(whole)
	return sign + "₱" + count(n) + "." + frac
}

func signedPeso(v float64) string {
	if v >= 0 {
		return "+" + peso(v)
	}
	return peso(v)
}
