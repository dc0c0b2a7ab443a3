package slotmon

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFormattedTime(t *testing.T) {
	slot := AvailableSlot{Month: "August 2026", Day: 14, Time: "0930"}
	if got := slot.FormattedTime(); got != "09:30" {
		t.Errorf("FormattedTime() = %q", got)
	}
}

func TestAvailableDates(t *testing.T) {
	slots := []AvailableSlot{
		{Month: "August 2026", Day: 14, Time: "0930"},
		{Month: "August 2026", Day: 14, Time: "1000"},
		{Month: "August 2026", Day: 3, Time: "0900"},
		{Month: "September 2026", Day: 1, Time: "1130"},
	}

	dates := AvailableDates(slots)

	want := map[string][]int{
		"August 2026":    {3, 14},
		"September 2026": {1},
	}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("AvailableDates() = %v", dates)
	}
}

func TestDatesDiff(t *testing.T) {
	baseline := map[string][]int{
		"August 2026":    {3, 14},
		"September 2026": {1},
	}
	current := map[string][]int{
		"August 2026":  {14, 20},
		"October 2026": {5},
	}

	diff := DatesDiff(baseline, current)

	want := []MonthDiff{
		{Month: "August 2026", Added: []int{20}, Removed: []int{3}},
		{Month: "October 2026", Added: []int{5}},
		{Month: "September 2026", Removed: []int{1}},
	}

	if len(diff) != len(want) {
		t.Fatalf("diff = %+v", diff)
	}
	for i := range want {
		if diff[i].Month != want[i].Month ||
			!reflect.DeepEqual(diff[i].Added, want[i].Added) ||
			!reflect.DeepEqual(diff[i].Removed, want[i].Removed) {
			t.Errorf("diff[%d] = %+v, want %+v", i, diff[i], want[i])
		}
	}
}

func TestDatesEqual(t *testing.T) {
	a := map[string][]int{"August 2026": {3, 14}}
	b := map[string][]int{"August 2026": {3, 14}}

	if !DatesEqual(a, b) {
		t.Error("identical groupings reported unequal")
	}
	if DatesEqual(a, map[string][]int{"August 2026": {3}}) {
		t.Error("different days reported equal")
	}
	if DatesEqual(a, map[string][]int{}) {
		t.Error("empty grouping reported equal")
	}
}

func TestSlotJSONShape(t *testing.T) {
	// state files written by earlier versions must stay readable
	raw := `{"month":"August 2026","day":14,"time":"0930"}`

	var slot AvailableSlot
	if err := json.Unmarshal([]byte(raw), &slot); err != nil {
		t.Fatal(err)
	}
	if slot != (AvailableSlot{Month: "August 2026", Day: 14, Time: "0930"}) {
		t.Errorf("slot = %+v", slot)
	}
}
