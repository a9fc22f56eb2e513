package marketdata

import "time"

// Sessions returns the expected NYSE trading days in [start, end], oldest first.
// Weekends and the exchange holidays (see nyseHolidays) are excluded. Unscheduled
// closures are not known, so callers should treat gaps as advisory.
func Sessions(start, end time.Time) []time.Time {
	d := truncateToDate(start)
	last := truncateToDate(end)

	var out []time.Time
	holidays := map[int]map[time.Time]struct{}{}
	for !d.After(last) {
		set, ok := holidays[d.Year()]
		if !ok {
			set = holidaySet(d.Year())
			holidays[d.Year()] = set
		}
		if isWeekday(d) {
			if _, closed := set[d]; !closed {
				out = append(out, d)
			}
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func isTradingDayNYSE(d time.Time) bool {
	d = truncateToDate(d)
	if !isWeekday(d) {
		return false
	}
	_, closed := holidaySet(d.Year())[d]
	return !closed
}

func holidaySet(year int) map[time.Time]struct{} {
	set := make(map[time.Time]struct{})
	for _, h := range nyseHolidays(year) {
		set[h] = struct{}{}
	}
	return set
}

// nyseHolidays lists the full-day NYSE closures of year as observed dates.
//
// Rules:
//   - New Year's Day: Sunday moves to Monday; Saturday is not observed.
//   - Juneteenth (from 2022), Independence Day, Christmas: Saturday moves to
//     Friday, Sunday to Monday.
//   - MLK Day (3rd Monday of January, from 1998), Washington's Birthday (3rd
//     Monday of February), Memorial Day (last Monday of May), Labor Day (1st
//     Monday of September), Thanksgiving (4th Thursday of November).
//   - Good Friday.
func nyseHolidays(year int) []time.Time {
	var out []time.Time

	newYear := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	switch newYear.Weekday() {
	case time.Sunday:
		out = append(out, newYear.AddDate(0, 0, 1))
	case time.Saturday:
	default:
		out = append(out, newYear)
	}

	if year >= 1998 {
		out = append(out, nthWeekday(year, time.January, time.Monday, 3))
	}
	out = append(out,
		nthWeekday(year, time.February, time.Monday, 3),
		easterSunday(year).AddDate(0, 0, -2),
		lastWeekday(year, time.May, time.Monday),
	)
	if year >= 2022 {
		out = append(out, observed(time.Date(year, time.June, 19, 0, 0, 0, 0, time.UTC)))
	}
	out = append(out,
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)),
		nthWeekday(year, time.September, time.Monday, 1),
		nthWeekday(year, time.November, time.Thursday, 4),
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)),
	)
	return out
}

// observed shifts a Saturday holiday to Friday and a Sunday one to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// nthWeekday returns the n-th wd of month (n starts at 1).
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

// lastWeekday returns the last wd of month.
func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

// easterSunday returns Easter Sunday for year (Meeus/Jones/Butcher).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
