package domain

import "fmt"

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Sort is the ranking mode of a listing.
type Sort string

const (
	SortHot           Sort = "hot"
	SortNew           Sort = "new"
	SortTop           Sort = "top"
	SortControversial Sort = "controversial"
	SortRising        Sort = "rising"
)

// TimeWindow is the look-back period of a listing. Reddit only honours it for
// top and controversial, but it is always sent.
type TimeWindow string

const (
	TimeHour  TimeWindow = "hour"
	TimeDay   TimeWindow = "day"
	TimeWeek  TimeWindow = "week"
	TimeMonth TimeWindow = "month"
	TimeYear  TimeWindow = "year"
	TimeAll   TimeWindow = "all"
)

var sorts = map[Sort]bool{
	SortHot: true, SortNew: true, SortTop: true, SortControversial: true, SortRising: true,
}

var timeWindows = map[TimeWindow]bool{
	TimeHour: true, TimeDay: true, TimeWeek: true, TimeMonth: true, TimeYear: true, TimeAll: true,
}

// ParseSort maps a path segment to a Sort. The empty string means SortHot.
func ParseSort(s string) (Sort, error) {
	if s == "" {
		return SortHot, nil
	}
	if !sorts[Sort(s)] {
		return "", fmt.Errorf("%w: invalid sort %q", ErrInvalidRequest, s)
	}
	return Sort(s), nil
}

// ParseTimeWindow maps a query value to a TimeWindow. The empty string means
// TimeDay.
func ParseTimeWindow(s string) (TimeWindow, error) {
	if s == "" {
		return TimeDay, nil
	}
	if !timeWindows[TimeWindow(s)] {
		return "", fmt.Errorf("%w: invalid time window %q", ErrInvalidRequest, s)
	}
	return TimeWindow(s), nil
}
