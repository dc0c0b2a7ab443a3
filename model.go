package slotmon

import "sort"

// AvailableSlot is one bookable appointment time. Time is the site's raw
// HHMM string (4 characters).
type AvailableSlot struct {
	Month string `json:"month"`
	Day   int    `json:"day"`
	Time  string `json:"time"`
}

// FormattedTime returns the slot time as HH:MM.
func (s AvailableSlot) FormattedTime() string {
	if len(s.Time) < 4 {
		return s.Time
	}
	return s.Time[:2] + ":" + s.Time[2:]
}

// CheckResult is the outcome of one full scan of the scheduling calendar.
type CheckResult struct {
	Slots       []AvailableSlot
	Screenshots [][]byte
}

// AvailableDates groups slots into month -> sorted days.
func AvailableDates(slots []AvailableSlot) map[string][]int {
	seen := make(map[string]map[int]bool)
	for _, slot := range slots {
		if seen[slot.Month] == nil {
			seen[slot.Month] = make(map[int]bool)
		}
		seen[slot.Month][slot.Day] = true
	}

	dates := make(map[string][]int, len(seen))
	for month, days := range seen {
		list := make([]int, 0, len(days))
		for day := range days {
			list = append(list, day)
		}
		sort.Ints(list)
		dates[month] = list
	}
	return dates
}

// MonthDiff is the change of one month's open days between two checks.
type MonthDiff struct {
	Month   string
	Added   []int
	Removed []int
}

// DatesDiff compares two month->days groupings. Months are reported in
// sorted order so the notification text is stable.
func DatesDiff(baseline, current map[string][]int) []MonthDiff {
	months := make(map[string]bool)
	for month := range baseline {
		months[month] = true
	}
	for month := range current {
		months[month] = true
	}

	ordered := make([]string, 0, len(months))
	for month := range months {
		ordered = append(ordered, month)
	}
	sort.Strings(ordered)

	var diff []MonthDiff
	for _, month := range ordered {
		entry := MonthDiff{
			Month:   month,
			Added:   missingDays(current[month], baseline[month]),
			Removed: missingDays(baseline[month], current[month]),
		}
		if len(entry.Added) > 0 || len(entry.Removed) > 0 {
			diff = append(diff, entry)
		}
	}
	return diff
}

// days of a that are not in b, sorted
func missingDays(a, b []int) []int {
	present := make(map[int]bool, len(b))
	for _, day := range b {
		present[day] = true
	}

	var missing []int
	for _, day := range a {
		if !present[day] {
			missing = append(missing, day)
		}
	}
	sort.Ints(missing)
	return missing
}

// DatesEqual reports whether two groupings list the same open days.
func DatesEqual(a, b map[string][]int) bool {
	return len(a) == len(b) && len(DatesDiff(a, b)) == 0
}
