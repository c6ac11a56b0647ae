package commands

import (
	"errors"
	"fmt"
	"time"
)

const dateFormat = "2006-01-02"

// defaultMonths is how far back an import reaches when no explicit window
// is given. The two extra days avoid refetching the boundary day of the
// previous run.
const defaultMonths = 3

// dateWindow turns the --months / --start-date / --end-date flags into a
// fetch window ending now unless an end date narrows it.
func dateWindow(now time.Time, months int, startDate, endDate string) (time.Time, time.Time, error) {
	if months != 0 && (startDate != "" || endDate != "") {
		return time.Time{}, time.Time{}, errors.New("--months cannot be combined with --start-date or --end-date")
	}

	end := now
	if startDate == "" && endDate == "" {
		if months == 0 {
			months = defaultMonths
		}
		return end.AddDate(0, -months, 2), end, nil
	}

	start := end.AddDate(0, -defaultMonths, 2)
	if startDate != "" {
		t, err := time.Parse(dateFormat, startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q, want YYYY-MM-DD", startDate)
		}
		start = t
	}
	if endDate != "" {
		t, err := time.Parse(dateFormat, endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q, want YYYY-MM-DD", endDate)
		}
		end = t
	}
	return start, end, nil
}
