// Package selection tracks what the operator has chosen and whether analysis may run.
//
// A State is not safe for concurrent use; callers that share one across goroutines
// must serialize access themselves.
package selection

import (
	"github.com/lehigh-university-libraries/image-analyzer/internal/analysis"
	"github.com/lehigh-university-libraries/image-analyzer/internal/media"
	"github.com/lehigh-university-libraries/image-analyzer/internal/prompt"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
)

// Snapshot is derived from a State after every change and never stored on its own
type Snapshot struct {
	ImageReady  bool    `json:"image_ready"`
	ModelReady  bool    `json:"model_ready"`
	FieldsReady bool    `json:"fields_ready"`
	Ready       bool    `json:"ready"`
	Progress    float64 `json:"progress"`
}

// Derive computes readiness from the three preconditions
func Derive(imageReady, modelReady, fieldsReady bool) Snapshot {
	count := 0
	for _, ok := range []bool{imageReady, modelReady, fieldsReady} {
		if ok {
			count++
		}
	}
	return Snapshot{
		ImageReady:  imageReady,
		ModelReady:  modelReady,
		FieldsReady: fieldsReady,
		Ready:       count == 3,
		Progress:    float64(count) / 3,
	}
}

// Observer is called with the fresh snapshot after each change
type Observer func(Snapshot)

type State struct {
	image      *media.Image
	generation uint64
	models     map[providers.ID]bool
	fields     map[prompt.FieldID]bool
	result     *analysis.Result
	observers  []Observer
}

func New() *State {
	return &State{
		models: make(map[providers.ID]bool),
		fields: make(map[prompt.FieldID]bool),
	}
}

// Subscribe registers an observer
func (s *State) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *State) Snapshot() Snapshot {
	return Derive(s.image != nil, len(s.models) > 0, len(s.fields) > 0)
}

func (s *State) notify() {
	snap := s.Snapshot()
	for _, o := range s.observers {
		o(snap)
	}
}

// SetImage replaces the image wholesale and drops any result computed for the previous one
func (s *State) SetImage(img *media.Image) {
	s.image = img
	s.generation++
	s.result = nil
	s.notify()
}

// ClearImage removes the image and the result that belonged to it
func (s *State) ClearImage() {
	s.image = nil
	s.generation++
	s.result = nil
	s.notify()
}

func (s *State) Image() *media.Image {
	return s.image
}

// Generation changes every time the image is replaced or removed
func (s *State) Generation() uint64 {
	return s.generation
}

// SetModel toggles a provider on or off
func (s *State) SetModel(id providers.ID, enabled bool) {
	if enabled {
		s.models[id] = true
	} else {
		delete(s.models, id)
	}
	s.notify()
}

// Models returns the enabled providers in preference order
func (s *State) Models() []providers.ID {
	var ids []providers.ID
	for _, id := range providers.All {
		if s.models[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// SetField toggles an output field on or off
func (s *State) SetField(f prompt.FieldID, enabled bool) {
	if enabled {
		s.fields[f] = true
	} else {
		delete(s.fields, f)
	}
	s.notify()
}

// Fields returns the selected output fields in prompt order
func (s *State) Fields() []prompt.FieldID {
	var fields []prompt.FieldID
	for _, f := range prompt.Fields {
		if s.fields[f] {
			fields = append(fields, f)
		}
	}
	return fields
}

func (s *State) Result() *analysis.Result {
	return s.result
}

// SetResult stores r if generation still matches the current image; a result for an image
// that has since been replaced or removed is discarded and false is returned.
func (s *State) SetResult(generation uint64, r analysis.Result) bool {
	if generation != s.generation || s.image == nil {
		return false
	}
	s.result = &r
	return true
}

// ClearResult drops the stored result ahead of a new attempt
func (s *State) ClearResult() {
	s.result = nil
}
