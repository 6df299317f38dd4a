// internal/domain/time_range.go
package domain

import "time"

// TimeRange selects the lookback window of the dashboard charts.
type TimeRange string

const (
	TimeRangeHour  TimeRange = "1h"
	TimeRangeDay   TimeRange = "1d"
	TimeRangeWeek  TimeRange = "7d"
	TimeRangeMonth TimeRange = "1m"

	DefaultTimeRange = TimeRangeWeek
)

// RangeSpec is the window and label layout (time.Format) of a TimeRange.
type RangeSpec struct {
	Window      time.Duration
	LabelFormat string
}

var rangeSpecs = map[TimeRange]RangeSpec{
	TimeRangeHour:  {Window: time.Hour, LabelFormat: "15:04"},
	TimeRangeDay:   {Window: 24 * time.Hour, LabelFormat: "15:04"},
	TimeRangeWeek:  {Window: 7 * 24 * time.Hour, LabelFormat: "01-02"},
	TimeRangeMonth: {Window: 30 * 24 * time.Hour, LabelFormat: "01-02"},
}

// ParseTimeRange maps a query value to a TimeRange; anything unknown selects the default.
func ParseTimeRange(s string) TimeRange {
	r := TimeRange(s)
	if _, ok := rangeSpecs[r]; ok {
		return r
	}
	return DefaultTimeRange
}

// Spec returns the window and label format for r.
func (r TimeRange) Spec() RangeSpec {
	if spec, ok := rangeSpecs[r]; ok {
		return spec
	}
	return rangeSpecs[DefaultTimeRange]
}
