package search

import (
	"fmt"
	"time"
)

// The index stores JST timestamps; every date in a query or response is
// interpreted in this fixed offset.
var jst = time.FixedZone("JST", 9*60*60)

const (
	dateOnlyFormat   = "2006-01-02"
	engineTimeFormat = "2006-01-02 15:04:05"
	engineTimeMask   = "yyyy-MM-dd HH:mm:ss"
	engineTimeZone   = "+09:00"

	defaultRangeDays = 30
)

// DateRange is a resolved, inclusive [From, To] window.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ResolveDateRange parses the optional from/to strings and fills defaults
// relative to now: from = now-30d, to = now. A range with To before From is a
// validation failure, never silently corrected. To == From is valid.
func ResolveDateRange(from, to string, now time.Time) (DateRange, error) {
	now = now.In(jst)

	r := DateRange{
		From: now.AddDate(0, 0, -defaultRangeDays),
		To:   now,
	}

	if from != "" {
		parsed, err := parseDateValue(from)
		if err != nil {
			return DateRange{}, &ValidationError{Field: "date.from", Reason: err.Error()}
		}
		r.From = parsed
	}

	if to != "" {
		parsed, err := parseDateValue(to)
		if err != nil {
			return DateRange{}, &ValidationError{Field: "date.to", Reason: err.Error()}
		}
		r.To = parsed
	}

	if r.To.Before(r.From) {
		return DateRange{}, &ValidationError{
			Field: "date.to",
			Reason: fmt.Sprintf("from:%s must be smaller than to:%s",
				r.From.Format(engineTimeFormat), r.To.Format(engineTimeFormat)),
		}
	}

	return r, nil
}

// parseDateValue accepts yyyy-MM-dd or an ISO date-time. Zone-less values are
// interpreted as JST.
func parseDateValue(value string) (time.Time, error) {
	layouts := []string{
		dateOnlyFormat,
		"2006-01-02T15:04:05",
		time.RFC3339,
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, jst); err == nil {
			return t.In(jst), nil
		}
	}

	return time.Time{}, fmt.Errorf("incorrect date format, should be yyyy-MM-dd or ISO date-time, input:%s", value)
}
