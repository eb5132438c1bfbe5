package models

import (
	"encoding/json"
	"testing"
)

func TestActionValid(t *testing.T) {
	for _, a := range []Action{ActionDraft, ActionEdit, ActionOverview, ActionChat, ActionSetup} {
		if !a.Valid() {
			t.Errorf("%q should be valid", a)
		}
	}
	for _, a := range []Action{"", "Draft", "summarize", "delete"} {
		if a.Valid() {
			t.Errorf("%q should be invalid", a)
		}
	}
}

func TestAuthoringRequest_missingContextDecodesNil(t *testing.T) {
	var req AuthoringRequest
	if err := json.Unmarshal([]byte(`{"action":"draft"}`), &req); err != nil {
		t.Fatal(err)
	}
	if req.Context != nil {
		t.Errorf("context should be nil, got %+v", req.Context)
	}
}

func TestAuthoringResult_emptyTextIsNotNull(t *testing.T) {
	b, err := json.Marshal(AuthoringResult{Model: "m", Provider: "ollama"})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"text":"","model":"m","provider":"ollama"}` {
		t.Errorf("got %s", b)
	}
}
