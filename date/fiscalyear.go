package date

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// FiscalYear identifies a tax accounting year. The year stored is the calendar
// year in which the fiscal year starts, so with an April start month FY{2024}
// covers 2024-04-01 through 2025-03-31.
type FiscalYear struct {
	Start int // calendar year of the first day
}

// FiscalYearOf returns the fiscal year containing d, for a fiscal year
// beginning on the first day of startMonth.
func FiscalYearOf(d Date, startMonth time.Month) FiscalYear {
	if d.Month() < startMonth {
		return FiscalYear{Start: d.Year() - 1}
	}
	return FiscalYear{Start: d.Year()}
}

// Range returns the first and last day of the fiscal year.
func (fy FiscalYear) Range(startMonth time.Month) Range {
	from := New(fy.Start, startMonth, 1)
	return Range{From: from, To: from.AddMonths(12).Add(-1)}
}

// String formats the fiscal year in the conventional "FY2024-25" form.
func (fy FiscalYear) String() string {
	return fmt.Sprintf("FY%d-%02d", fy.Start, (fy.Start+1)%100)
}

var fyPattern = regexp.MustCompile(`^FY(\d{4})-(\d{2})$`)

// ParseFiscalYear parses the "FY2024-25" form produced by String.
func ParseFiscalYear(s string) (FiscalYear, error) {
	m := fyPattern.FindStringSubmatch(s)
	if m == nil {
		return FiscalYear{}, fmt.Errorf("invalid fiscal year %q, want form FY2024-25", s)
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return FiscalYear{}, err
	}
	if (start+1)%100 != atoi(m[2]) {
		return FiscalYear{}, fmt.Errorf("inconsistent fiscal year %q: %d does not follow %d", s, atoi(m[2]), start)
	}
	return FiscalYear{Start: start}, nil
}

func atoi(s string) int { n, _ := strconv.Atoi(s); return n }
