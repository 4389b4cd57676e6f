package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TypeAmount is an amount aggregated by transaction type.
type TypeAmount struct {
	TypeID      int64           `json:"typeId"`
	MachineName string          `json:"machineName"`
	Amount      decimal.Decimal `json:"amount"`
	Count       int             `json:"count"`
}

// CategoryAmount is an amount aggregated by category and type.
type CategoryAmount struct {
	CategoryID int64           `json:"categoryId"`
	Name       string          `json:"name"`
	TypeID     int64           `json:"typeId"`
	Amount     decimal.Decimal `json:"amount"`
}

// MonthOverview is the chart data for one year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	ByType     []TypeAmount     `json:"byType"`
	ByCategory []CategoryAmount `json:"byCategory"`
}

// MonthBounds returns the half-open UTC range [start, end) of a month.
func MonthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// BuildMonthOverview aggregates joined transactions into per-type and
// per-category totals, ordered by type id then amount.
func BuildMonthOverview(year, month int, txs []TransactionDetail) MonthOverview {
	ov := MonthOverview{Year: year, Month: month, ByType: []TypeAmount{}, ByCategory: []CategoryAmount{}}

	byType := map[int64]*TypeAmount{}
	type catKey struct{ cat, typ int64 }
	byCat := map[catKey]*CategoryAmount{}

	for _, t := range txs {
		ta, ok := byType[t.TypeID]
		if !ok {
			ta = &TypeAmount{TypeID: t.TypeID, MachineName: t.Type.MachineName}
			byType[t.TypeID] = ta
		}
		ta.Amount = ta.Amount.Add(t.Amount)
		ta.Count++

		k := catKey{t.CategoryID, t.TypeID}
		ca, ok := byCat[k]
		if !ok {
			ca = &CategoryAmount{CategoryID: t.CategoryID, Name: t.Category.Name, TypeID: t.TypeID}
			byCat[k] = ca
		}
		ca.Amount = ca.Amount.Add(t.Amount)
	}

	for _, ta := range byType {
		ov.ByType = append(ov.ByType, *ta)
	}
	sort.Slice(ov.ByType, func(i, j int) bool { return ov.ByType[i].TypeID < ov.ByType[j].TypeID })

	for _, ca := range byCat {
		ov.ByCategory = append(ov.ByCategory, *ca)
	}
	sort.Slice(ov.ByCategory, func(i, j int) bool {
		a, b := ov.ByCategory[i], ov.ByCategory[j]
		if a.TypeID != b.TypeID {
			return a.TypeID < b.TypeID
		}
		if c := a.Amount.Abs().Cmp(b.Amount.Abs()); c != 0 {
			return c > 0
		}
		return a.CategoryID < b.CategoryID
	})
	return ov
}
