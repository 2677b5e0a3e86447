package nlu

import (
	"encoding/json"
	"testing"
)

func TestResponseDecoding(t *testing.T) {
	raw := `{
	  "intent": null,
	  "intent_ranking": [{"name": "greet", "confidence": 0.4}, {"name": "bye", "confidence": 0.3}],
	  "entities": [
	    {"entity": "amount", "value": 12.5, "confidence": 0.9},
	    {"entity": "flag", "value": true, "confidence": 0.8},
	    {"entity": "city", "value": "Rome", "confidence": 0.7, "start": 3, "end": 7, "extractor": "crf"},
	    {"entity": "empty", "value": null, "confidence": 0.1}
	  ],
	  "model": "m"
	}`
	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Intent.Name != "" || resp.Intent.Confidence != 0 {
		t.Fatalf("null intent should decode to zero value, got %+v", resp.Intent)
	}
	want := []Value{"12.5", "true", "Rome", ""}
	for i, w := range want {
		if resp.Entities[i].Value != w {
			t.Fatalf("entity %d: expected %q got %q", i, w, resp.Entities[i].Value)
		}
	}
	if got, ok := resp.FindRanked("bye"); !ok || got.Confidence != 0.3 {
		t.Fatalf("expected ranked bye 0.3 got %+v %v", got, ok)
	}
	if _, ok := resp.FindRanked("missing"); ok {
		t.Fatalf("did not expect to find missing intent")
	}
}
