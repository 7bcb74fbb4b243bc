package stats

import (
	"fmt"
	"net/url"
	"time"

	"github.com/odyssey-erp/backoffice/internal/filterview"
)

const (
	FieldDateFrom        = "dateFrom"
	FieldDateTo          = "dateTo"
	FieldCompareDateFrom = "compareDateFrom"
	FieldCompareDateTo   = "compareDateTo"

	// DefaultRangeDays is how far back the default range starts.
	DefaultRangeDays = 14
	// MaxRangeDays bounds a single range.
	MaxRangeDays = 366
)

var compareFields = []string{FieldCompareDateFrom, FieldCompareDateTo}

// Schema builds the stats fields. Comparison starts enabled only when the
// initial query carries a valid compareDateFrom.
func Schema(now func() time.Time) func(initial url.Values) filterview.Schema {
	return func(initial url.Values) filterview.Schema {
		today := filterview.Day(now())
		compare := filterview.IsValidDateString(initial.Get(FieldCompareDateFrom))
		return filterview.Schema{
			Fields: []filterview.Field{
				{Name: FieldDateFrom, Kind: filterview.KindDate, Required: true, Default: today.AddDate(0, 0, -DefaultRangeDays)},
				{Name: FieldDateTo, Kind: filterview.KindDate, Required: true, Default: today},
				{Name: FieldCompareDateFrom, Kind: filterview.KindDate, Required: true, Disabled: !compare},
				{Name: FieldCompareDateTo, Kind: filterview.KindDate, Required: true, Disabled: !compare},
			},
			Check: checkRanges,
		}
	}
}

func checkRanges(v filterview.Values) error {
	if err := checkRange(v, FieldDateFrom, FieldDateTo); err != nil {
		return err
	}
	return checkRange(v, FieldCompareDateFrom, FieldCompareDateTo)
}

func checkRange(v filterview.Values, fromField, toField string) error {
	from, okFrom := v.Date(fromField)
	to, okTo := v.Date(toField)
	if !okFrom || !okTo {
		return nil
	}
	if from.After(to) {
		return fmt.Errorf("%s must not be after %s", fromField, toField)
	}
	if days(from, to) > MaxRangeDays {
		return fmt.Errorf("%s to %s spans more than %d days", fromField, toField, MaxRangeDays)
	}
	return nil
}

// days counts the days of an inclusive range.
func days(from, to time.Time) int {
	return int(to.Sub(from).Hours()/24) + 1
}
