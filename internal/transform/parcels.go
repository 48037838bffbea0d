package transform

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/TobiSchelling/LogiDash/internal/region"
	"github.com/TobiSchelling/LogiDash/internal/status"
)

// Column layout of the parcel sheet.
const (
	pcolDate = iota
	pcolTracking
	pcolStatus
	pcolShipper
	pcolConsignee
	pcolAddress
	pcolCOD
	pcolServiceCharge
	pcolTotalCost

	// MinParcelColumns is the shortest parcel row accepted.
	MinParcelColumns = pcolAddress + 1
)

// RTSFeeRate is the share of total cost charged on a returned parcel.
var RTSFeeRate = decimal.NewFromFloat(0.2)

// ParcelRecord is one shipped parcel.
type ParcelRecord struct {
	Date           string        `json:"date"`
	TrackingNumber string        `json:"trackingNumber"`
	Status         status.Status `json:"status"`
	RawStatus      string        `json:"rawStatus"`
	Shipper        string        `json:"shipper"`
	ConsigneeName  string        `json:"consigneeName"`
	Province       string        `json:"province"`
	Region         string        `json:"region"`
	Island         string        `json:"island"`
	CODAmount      float64       `json:"codAmount"`
	ServiceCharge  float64       `json:"serviceCharge"`
	TotalCost      float64       `json:"totalCost"`
	RTSFee         float64       `json:"rtsFee"`
}

// ParcelBucket holds the parcels of one island with precomputed counts.
type ParcelBucket struct {
	Parcels         []ParcelRecord        `json:"parcels"`
	Total           int                   `json:"total"`
	StatusCounts    map[status.Status]int `json:"statusCounts"`
	ProvinceCounts  *Counter              `json:"provinceCounts"`
	RegionCounts    *Counter              `json:"regionCounts"`
	WinningShippers *Counter              `json:"winningShippers"`
	RTSShippers     *Counter              `json:"rtsShippers"`
	TotalCOD        float64               `json:"totalCod"`
	TotalService    float64               `json:"totalServiceCharge"`
	TotalCost       float64               `json:"totalCost"`
	TotalRTSFee     float64               `json:"totalRtsFee"`
}

func newParcelBucket() *ParcelBucket {
	b := &ParcelBucket{
		Parcels:         []ParcelRecord{},
		StatusCounts:    make(map[status.Status]int, len(status.All)),
		ProvinceCounts:  NewCounter(MaxCounterKeys),
		RegionCounts:    NewCounter(MaxCounterKeys),
		WinningShippers: NewCounter(MaxCounterKeys),
		RTSShippers:     NewCounter(MaxCounterKeys),
	}
	for _, s := range status.All {
		b.StatusCounts[s] = 0
	}
	return b
}

func (b *ParcelBucket) add(p ParcelRecord) {
	b.Parcels = append(b.Parcels, p)
	b.Total++
	b.StatusCounts[p.Status]++
	b.ProvinceCounts.Inc(p.Province, 1)
	b.RegionCounts.Inc(p.Region, 1)
	if p.Status == status.Delivered {
		b.WinningShippers.Inc(p.Shipper, 1)
	}
	if p.Status.IsRTS() {
		b.RTSShippers.Inc(p.Shipper, 1)
	}
	b.TotalCOD = Round2(b.TotalCOD + p.CODAmount)
	b.TotalService = Round2(b.TotalService + p.ServiceCharge)
	b.TotalCost = Round2(b.TotalCost + p.TotalCost)
	b.TotalRTSFee = Round2(b.TotalRTSFee + p.RTSFee)
}

// ParcelGroups buckets parcels overall and per island. Parcels whose island
// is unknown appear only in All.
type ParcelGroups struct {
	All      *ParcelBucket `json:"all"`
	Luzon    *ParcelBucket `json:"luzon"`
	Visayas  *ParcelBucket `json:"visayas"`
	Mindanao *ParcelBucket `json:"mindanao"`
}

// Island returns the bucket for an island name, or nil.
func (g *ParcelGroups) Island(name string) *ParcelBucket {
	switch name {
	case region.Luzon:
		return g.Luzon
	case region.Visayas:
		return g.Visayas
	case region.Mindanao:
		return g.Mindanao
	}
	return nil
}

// TransformParcels normalizes parcel rows and groups them in one pass.
func TransformParcels(rows []RawRow) *ParcelGroups {
	return TransformParcelsWith(region.Default(), rows)
}

// TransformParcelsWith is TransformParcels with an explicit classifier.
func TransformParcelsWith(c *region.Classifier, rows []RawRow) *ParcelGroups {
	g := &ParcelGroups{
		All:      newParcelBucket(),
		Luzon:    newParcelBucket(),
		Visayas:  newParcelBucket(),
		Mindanao: newParcelBucket(),
	}
	for i, row := range rows {
		if row.blank() {
			continue
		}
		if len(row) < MinParcelColumns {
			log.Warn().Int("row", i).Int("columns", len(row)).Msg("skipping short parcel row")
			continue
		}
		p := parseParcel(c, row)
		g.All.add(p)
		if b := g.Island(p.Island); b != nil {
			b.add(p)
		}
	}
	return g
}

func parseParcel(c *region.Classifier, row RawRow) ParcelRecord {
	rawStatus := strings.TrimSpace(row.cell(pcolStatus))
	info := c.Classify(row.cell(pcolAddress))
	totalCost := ParseMoney(row.cell(pcolTotalCost))

	return ParcelRecord{
		Date:           strings.TrimSpace(row.cell(pcolDate)),
		TrackingNumber: strings.TrimSpace(row.cell(pcolTracking)),
		Status:         status.Normalize(rawStatus),
		RawStatus:      rawStatus,
		Shipper:        SanitizeKey(row.cell(pcolShipper)),
		ConsigneeName:  strings.TrimSpace(row.cell(pcolConsignee)),
		Province:       info.Province,
		Region:         info.Region,
		Island:         info.Island,
		CODAmount:      ParseMoney(row.cell(pcolCOD)),
		ServiceCharge:  ParseMoney(row.cell(pcolServiceCharge)),
		TotalCost:      totalCost,
		RTSFee:         RTSFee(totalCost),
	}
}

// RTSFee is RTSFeeRate of the total cost rounded to centavos.
func RTSFee(totalCost float64) float64 {
	return decimal.NewFromFloat(totalCost).Mul(RTSFeeRate).Round(2).InexactFloat64()
}
