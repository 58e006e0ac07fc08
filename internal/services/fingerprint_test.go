package services

import (
	"encoding/json"
	"testing"
)

func TestCanonicalJSON_KeyOrderIndependent(t *testing.T) {
	a := map[string]interface{}{"x": 1.0, "y": "two", "z": true}
	b := map[string]interface{}{"z": true, "y": "two", "x": 1.0}

	ca, err := CanonicalJSON(a)
	if err != nil {
		t.Fatalf("CanonicalJSON(a) error: %v", err)
	}
	cb, err := CanonicalJSON(b)
	if err != nil {
		t.Fatalf("CanonicalJSON(b) error: %v", err)
	}

	if ca != cb {
		t.Errorf("canonical forms differ:\n%s\n%s", ca, cb)
	}
}

func TestCanonicalJSON_NestedKeyOrder(t *testing.T) {
	var a, b interface{}
	json.Unmarshal([]byte(`{"outer":{"b":2,"a":1},"list":[{"k":1,"j":2}]}`), &a)
	json.Unmarshal([]byte(`{"list":[{"j":2,"k":1}],"outer":{"a":1,"b":2}}`), &b)

	ca, _ := CanonicalJSON(a)
	cb, _ := CanonicalJSON(b)
	if ca != cb {
		t.Errorf("nested canonical forms differ:\n%s\n%s", ca, cb)
	}
}

func TestCanonicalJSON_ArrayOrderSignificant(t *testing.T) {
	a := []interface{}{"first", "second"}
	b := []interface{}{"second", "first"}

	ca, _ := CanonicalJSON(a)
	cb, _ := CanonicalJSON(b)
	if ca == cb {
		t.Error("array order should change the canonical form")
	}
}

func TestFingerprint_Stable(t *testing.T) {
	payload := []interface{}{
		map[string]interface{}{"button": map[string]interface{}{"label": "go"}},
	}

	f1, err := Fingerprint(payload, nil, nil, true)
	if err != nil {
		t.Fatalf("Fingerprint error: %v", err)
	}
	f2, err := Fingerprint(payload, nil, nil, true)
	if err != nil {
		t.Fatalf("Fingerprint error: %v", err)
	}

	if f1 != f2 {
		t.Errorf("fingerprint not stable: %s vs %s", f1, f2)
	}
	if len(f1) != 64 {
		t.Errorf("fingerprint should be 64 hex chars, got %d", len(f1))
	}
}

func TestFingerprint_SensitiveToEveryField(t *testing.T) {
	payload := []interface{}{map[string]interface{}{"a": 1.0}}
	base, _ := Fingerprint(payload, nil, nil, true)

	changedPayload, _ := Fingerprint([]interface{}{map[string]interface{}{"a": 2.0}}, nil, nil, true)
	if changedPayload == base {
		t.Error("payload change should change the fingerprint")
	}

	changedEditor, _ := Fingerprint(payload, map[string]interface{}{"zoom": 1.5}, nil, true)
	if changedEditor == base {
		t.Error("editorState change should change the fingerprint")
	}

	changedBg, _ := Fingerprint(payload, nil, strPtr("https://img.example/bg.png"), true)
	if changedBg == base {
		t.Error("backgroundImage change should change the fingerprint")
	}

	changedDraft, _ := Fingerprint(payload, nil, nil, false)
	if changedDraft == base {
		t.Error("isDraft change should change the fingerprint")
	}
}

func TestFingerprint_RoundTripThroughJSON(t *testing.T) {
	payload := map[string]interface{}{"count": 3.0, "items": []interface{}{"a", "b"}}
	before, _ := Fingerprint(payload, nil, nil, true)

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	after, _ := Fingerprint(decoded, nil, nil, true)
	if before != after {
		t.Errorf("fingerprint changed across a JSON round-trip: %s vs %s", before, after)
	}
}
