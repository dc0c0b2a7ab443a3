package slotmon

import (
	"encoding/json"
	"os"
)

// State is what survives between checks.
type State struct {
	AvailableSlots []AvailableSlot `json:"available_slots"`
	Timestamp      int64           `json:"timestamp"`
}

type StateProvider interface {
	Get() (*State, error)
	Save(state *State) error
}

// JSONFileState keeps the state in a single JSON file next to the binary.
type JSONFileState struct {
	Path string
}

func NewJSONFileState(path string) *JSONFileState {
	return &JSONFileState{Path: path}
}

func (p *JSONFileState) Get() (*State, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}

	state := new(State)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (p *JSONFileState) Save(state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(p.Path, data, 0644)
}
