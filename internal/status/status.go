package status

import "strings"

// Status is a normalized parcel status.
type Status string

const (
	Delivered   Status = "DELIVERED"
	OnDelivery  Status = "ONDELIVERY"
	Pickup      Status = "PICKUP"
	InTransit   Status = "INTRANSIT"
	Cancelled   Status = "CANCELLED"
	Detained    Status = "DETAINED"
	Problematic Status = "PROBLEMATIC"
	Returned    Status = "RETURNED"
	Other       Status = "OTHER"
)

// All lists every status, OTHER last.
var All = []Status{Delivered, OnDelivery, Pickup, InTransit, Cancelled, Detained, Problematic, Returned, Other}

type rule struct {
	status   Status
	keywords []string
}

// rules are evaluated in order and the first hit wins. Severe outcomes come
// before DELIVERED because composite strings like "Cancelled - Delivered to
// sender" must not read as a delivery.
var rules = []rule{
	{Problematic, []string{"PROBLEM", "UNDELIVER", "FAILED", "EXCEPTION", "ABNORMAL", "ISSUE"}},
	{Cancelled, []string{"CANCEL"}},
	{Returned, []string{"RETURN"}},
	{Detained, []string{"DETAIN", "ON HOLD"}},
	{Delivered, []string{"DELIVERED", "SIGNED", "COMPLETED"}},
	{OnDelivery, []string{"ON DELIVERY", "ONDELIVERY", "OUT FOR DELIVERY", "DELIVERING"}},
	{Pickup, []string{"PICKUP", "PICK UP", "PICKED UP", "FOR PICK"}},
	{InTransit, []string{"TRANSIT", "SHIPPED", "ARRIVED", "DEPARTED", "SORTING"}},
}

// Normalize maps free-text status to a Status.
func Normalize(raw string) Status {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return Other
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(upper, kw) {
				return r.status
			}
		}
	}
	return Other
}

// IsRTS reports whether the status counts toward return-to-sender.
func (s Status) IsRTS() bool {
	return s == Cancelled || s == Problematic || s == Returned
}
