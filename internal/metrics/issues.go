package metrics

import (
	"fmt"

	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// Alert thresholds in percent of total orders.
const (
	DetentionThreshold    = 5.0
	ReturnsThreshold      = 10.0
	CancellationThreshold = 15.0
	PendingThreshold      = 20.0
)

const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is one threshold breach.
type Alert struct {
	Type      string  `json:"type"`
	Severity  string  `json:"severity"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Issues lists the alerts raised over a record set.
type Issues struct {
	TotalOrders int     `json:"totalOrders"`
	HasIssues   bool    `json:"hasIssues"`
	Alerts      []Alert `json:"alerts"`
}

type issueRule struct {
	kind      string
	title     string
	noun      string
	threshold float64
	stages    []transform.Stage
}

var issueRules = []issueRule{
	{"detention", "High detention rate", "detained", DetentionThreshold, []transform.Stage{transform.Detained}},
	{"returns", "High return rate", "returned", ReturnsThreshold, []transform.Stage{transform.Returned}},
	{"cancellations", "High cancellation rate", "cancelled", CancellationThreshold, []transform.Stage{transform.Cancelled, transform.CancelledWithoutPrice}},
	{"pending", "Pending backlog", "still pending", PendingThreshold, []transform.Stage{transform.PendingNotPrinted, transform.PendingPrintedWaybill}},
}

// GetIssues evaluates the fixed threshold rules against the summed records.
// An alert is critical when its value exceeds twice the threshold.
func GetIssues(records []transform.DailyRecord) *Issues {
	if len(records) == 0 {
		return nil
	}
	sum := transform.Sum(records)
	out := &Issues{TotalOrders: sum.TotalOrders, Alerts: []Alert{}}
	for _, rule := range issueRules {
		count := 0
		for _, s := range rule.stages {
			count += sum.Stage(s).Count
		}
		// Thresholds compare the exact rate; Value is rounded for display.
		rate := 0.0
		if sum.TotalOrders > 0 {
			rate = float64(count) / float64(sum.TotalOrders) * 100
		}
		if rate <= rule.threshold {
			continue
		}
		severity := SeverityWarning
		if rate > 2*rule.threshold {
			severity = SeverityCritical
		}
		value := transform.Percent(count, sum.TotalOrders)
		out.Alerts = append(out.Alerts, Alert{
			Type:      rule.kind,
			Severity:  severity,
			Title:     rule.title,
			Message:   fmt.Sprintf("%.2f%% of orders are %s (%d of %d), above the %.0f%% threshold", value, rule.noun, count, sum.TotalOrders, rule.threshold),
			Value:     value,
			Threshold: rule.threshold,
		})
	}
	out.HasIssues = len(out.Alerts) > 0
	return out
}
