package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/TobiSchelling/LogiDash/internal/transform"
)

// Financial holds gross and net figures for a record set.
type Financial struct {
	GrossRevenue       float64            `json:"grossRevenue"`
	ShippingFees       float64            `json:"shippingFees"`
	AdSpend            float64            `json:"adSpend"`
	TotalOrders        int                `json:"totalOrders"`
	NetRevenue         float64            `json:"netRevenue"`
	ProfitMargin       float64            `json:"profitMargin"`
	AverageOrderValue  float64            `json:"averageOrderValue"`
	CostPerAcquisition float64            `json:"costPerAcquisition"`
	Delivered          DeliveredFinancial `json:"delivered"`
}

// DeliveredFinancial restricts revenue to delivered orders. Shipping and ad
// spend are not tracked per order, so both are allocated by the ratio of
// delivered to total orders.
type DeliveredFinancial struct {
	Orders            int     `json:"orders"`
	Revenue           float64 `json:"revenue"`
	AllocationRatio   float64 `json:"allocationRatio"`
	ShippingFees      float64 `json:"shippingFees"`
	AdSpend           float64 `json:"adSpend"`
	NetRevenue        float64 `json:"netRevenue"`
	ProfitMargin      float64 `json:"profitMargin"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

// GetFinancial sums money fields and derives margins in decimal arithmetic.
func GetFinancial(records []transform.DailyRecord) *Financial {
	if len(records) == 0 {
		return nil
	}
	var gross, shipping, ads decimal.Decimal
	var orders, deliveredOrders int
	var deliveredRevenue decimal.Decimal
	for _, r := range records {
		gross = gross.Add(decimal.NewFromFloat(r.Revenue))
		shipping = shipping.Add(decimal.NewFromFloat(r.ShippingFee))
		ads = ads.Add(decimal.NewFromFloat(r.AdSpend))
		orders += r.TotalOrders
		d := r.Stage(transform.Delivered)
		deliveredOrders += d.Count
		deliveredRevenue = deliveredRevenue.Add(decimal.NewFromFloat(d.Amount))
	}

	net := gross.Sub(shipping).Sub(ads)
	f := &Financial{
		GrossRevenue:       money(gross),
		ShippingFees:       money(shipping),
		AdSpend:            money(ads),
		TotalOrders:        orders,
		NetRevenue:         money(net),
		ProfitMargin:       percentOf(net, gross),
		AverageOrderValue:  money(divide(gross, decimal.NewFromInt(int64(orders)))),
		CostPerAcquisition: money(divide(ads, decimal.NewFromInt(int64(orders)))),
	}

	share := divide(decimal.NewFromInt(int64(deliveredOrders)), decimal.NewFromInt(int64(orders)))
	dShipping := shipping.Mul(share)
	dAds := ads.Mul(share)
	dNet := deliveredRevenue.Sub(dShipping).Sub(dAds)
	f.Delivered = DeliveredFinancial{
		Orders:            deliveredOrders,
		Revenue:           money(deliveredRevenue),
		AllocationRatio:   share.Round(4).InexactFloat64(),
		ShippingFees:      money(dShipping),
		AdSpend:           money(dAds),
		NetRevenue:        money(dNet),
		ProfitMargin:      percentOf(dNet, deliveredRevenue),
		AverageOrderValue: money(divide(deliveredRevenue, decimal.NewFromInt(int64(deliveredOrders)))),
	}
	return f
}

func divide(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, 8)
}

func percentOf(part, whole decimal.Decimal) float64 {
	return money(divide(part, whole).Mul(decimal.NewFromInt(100)))
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
