package transform

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Stage is one order-lifecycle state tracked per day.
type Stage int

const (
	PendingNotPrinted Stage = iota
	PrintedWaybill
	PendingPrintedWaybill
	Fulfilled
	InTransit
	OnDelivery
	Detained
	Delivered
	Cancelled
	CancelledWithoutPrice
	Returned
	NumStages
)

var stageKeys = [NumStages]string{
	"pendingNotPrinted",
	"printedWaybill",
	"pendingPrintedWaybill",
	"fulfilled",
	"inTransit",
	"onDelivery",
	"detained",
	"delivered",
	"cancelled",
	"cancelledWithoutPrice",
	"returned",
}

var stageLabels = [NumStages]string{
	"Pending (Not Printed)",
	"Printed Waybill",
	"Pending (Printed Waybill)",
	"Fulfilled",
	"In Transit",
	"On Delivery",
	"Detained",
	"Delivered",
	"Cancelled",
	"Cancelled (Without Price)",
	"Returned",
}

// Stages lists every stage in funnel order.
func Stages() []Stage {
	out := make([]Stage, NumStages)
	for i := range out {
		out[i] = Stage(i)
	}
	return out
}

// Key is the JSON field prefix of the stage.
func (s Stage) Key() string { return stageKeys[s] }

// Label is the human-readable stage name.
func (s Stage) Label() string { return stageLabels[s] }

// StageValue is the count, amount and percent-of-orders of one stage.
type StageValue struct {
	Count   int     `json:"count"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// DailyRecord is one normalized calendar day.
type DailyRecord struct {
	Date        string
	AdSpend     float64
	ShippingFee float64
	TotalItems  int
	TotalOrders int
	Revenue     float64
	Stages      [NumStages]StageValue
}

// Stage returns the value of a lifecycle stage.
func (r DailyRecord) Stage(s Stage) StageValue {
	return r.Stages[s]
}

// Add sums counts and amounts of two records. Percents are recomputed from
// the summed counts; the date of r is kept.
func (r DailyRecord) Add(o DailyRecord) DailyRecord {
	out := r
	out.AdSpend = Round2(r.AdSpend + o.AdSpend)
	out.ShippingFee = Round2(r.ShippingFee + o.ShippingFee)
	out.TotalItems = r.TotalItems + o.TotalItems
	out.TotalOrders = r.TotalOrders + o.TotalOrders
	out.Revenue = Round2(r.Revenue + o.Revenue)
	for i := range out.Stages {
		out.Stages[i].Count = r.Stages[i].Count + o.Stages[i].Count
		out.Stages[i].Amount = Round2(r.Stages[i].Amount + o.Stages[i].Amount)
	}
	return out.WithPercents()
}

// WithPercents returns a copy whose stage percents are count/totalOrders*100.
func (r DailyRecord) WithPercents() DailyRecord {
	for i := range r.Stages {
		r.Stages[i].Percent = Percent(r.Stages[i].Count, r.TotalOrders)
	}
	return r
}

// Sum folds records into one. The zero record is returned for empty input.
func Sum(records []DailyRecord) DailyRecord {
	var total DailyRecord
	for _, r := range records {
		total = total.Add(r)
	}
	return total
}

// Percent returns part/whole*100 rounded to two decimals, 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return Round2(float64(part) / float64(whole) * 100)
}

// Round2 rounds a money or ratio value to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// MarshalJSON writes the record as a flat object with one
// <stage>Count/<stage>Amount/<stage>Percent triple per stage.
func (r DailyRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}

	fields := []struct {
		key string
		val any
	}{
		{"date", r.Date},
		{"adSpend", r.AdSpend},
		{"shippingFee", r.ShippingFee},
		{"totalItems", r.TotalItems},
		{"totalOrders", r.TotalOrders},
		{"revenue", r.Revenue},
	}
	for _, f := range fields {
		if err := write(f.key, f.val); err != nil {
			return nil, err
		}
	}
	for _, s := range Stages() {
		v := r.Stages[s]
		if err := write(s.Key()+"Count", v.Count); err != nil {
			return nil, err
		}
		if err := write(s.Key()+"Amount", v.Amount); err != nil {
			return nil, err
		}
		if err := write(s.Key()+"Percent", v.Percent); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
