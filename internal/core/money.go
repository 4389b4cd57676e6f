// Package core holds the ledger domain: users, categories, transaction
// types and transactions, plus the parsing rules shared by the HTTP API,
// the CSV importer and the admin CLI.
//
// This file contains amount and timestamp parsing.
package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts user-entered text to a decimal amount.
//
// Any sign and magnitude is accepted. A single comma is treated as the
// decimal separator when the text has no dot, so "12,50" equals "12.50".
//
//	ParseAmount("200")    -> 200
//	ParseAmount("-12,5")  -> -12.5
//	ParseAmount("1e3")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
		case (r == '-' || r == '+') && i == 0:
		default:
			return decimal.Zero, ErrInvalidAmount
		}
	}
	s = strings.TrimPrefix(s, "+")
	if strings.Count(s, ".") > 1 || strings.Trim(s, "-.") == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// TimestampLayout renders instants the way the export format expects
// (UTC, millisecond precision, trailing Z).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 style date or timestamp. Values without a
// zone are taken as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
