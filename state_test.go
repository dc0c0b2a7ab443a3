package slotmon

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestJSONFileState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	provider := NewJSONFileState(path)

	// missing file means a fresh state
	state, err := provider.Get()
	if err != nil {
		t.Fatal(err)
	}
	if len(state.AvailableSlots) != 0 {
		t.Errorf("fresh state = %+v", state)
	}

	saved := &State{
		AvailableSlots: []AvailableSlot{
			{Month: "August 2026", Day: 14, Time: "0930"},
		},
		Timestamp: 1756166400,
	}
	if err := provider.Save(saved); err != nil {
		t.Fatal(err)
	}

	loaded, err := provider.Get()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, saved) {
		t.Errorf("loaded = %+v, want %+v", loaded, saved)
	}
}
