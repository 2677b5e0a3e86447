package nlu

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Request is the body posted to the NLU parse endpoint.
type Request struct {
	Query   string `json:"q"`
	Project string `json:"project"`
}

// Intent is a named intent with the confidence the service assigned to it.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Entity is an entity extracted by the NLU service.
type Entity struct {
	Entity     string  `json:"entity"`
	Value      Value   `json:"value"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start,omitempty"`
	End        int     `json:"end,omitempty"`
	Extractor  string  `json:"extractor,omitempty"`
}

// Response is the parse result returned for a single sentence.
type Response struct {
	Text          string   `json:"text,omitempty"`
	Project       string   `json:"project,omitempty"`
	Model         string   `json:"model,omitempty"`
	Intent        Intent   `json:"intent"`
	IntentRanking []Intent `json:"intent_ranking"`
	Entities      []Entity `json:"entities"`
}

// FindRanked returns the first ranked intent with the given name.
func (r Response) FindRanked(name string) (Intent, bool) {
	for _, candidate := range r.IntentRanking {
		if candidate.Name == name {
			return candidate, true
		}
	}
	return Intent{}, false
}

// Value holds an entity value. Services sometimes emit numbers or booleans
// for entity values; those are kept as their JSON text.
type Value string

// UnmarshalJSON accepts any scalar JSON value.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	*v = Value(strings.TrimSpace(string(trimmed)))
	return nil
}

func (v Value) String() string {
	return string(v)
}
