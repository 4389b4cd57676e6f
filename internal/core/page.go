package core

import (
	"strconv"
	"strings"
)

const (
	DefaultTake = 5
	MaxTake     = 100
)

// Page is an offset window over an ordered listing.
type Page struct {
	Skip int
	Take int
}

// ParsePage reads skip/take query values. Absent values fall back to 0/5,
// non-numeric or negative values are coerced to 0 and take is capped.
func ParsePage(skip, take string) Page {
	return Page{
		Skip: pageValue(skip, 0),
		Take: min(pageValue(take, DefaultTake), MaxTake),
	}
}

func pageValue(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// PageResult is one page of items plus the size of the full listing.
type PageResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}
