package submission

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestValueJSONShapes(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"text", TextValue("hello"), `"hello"`},
		{"multi", MultiValue([]string{"A", "C"}), `["A","C"]`},
		{"empty multi", MultiValue(nil), `[]`},
		{"bool false", BoolValue(false), `false`},
	}
	for _, tc := range cases {
		got, err := json.Marshal(tc.v)
		if err != nil {
			t.Fatalf("%s: marshal: %v", tc.name, err)
		}
		if string(got) != tc.want {
			t.Errorf("%s: marshal = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestValueUnmarshalInfersKind(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`["A","C"]`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Kind != KindMulti || len(v.Multi) != 2 || v.Multi[0] != "A" || v.Multi[1] != "C" {
		t.Errorf("multi value = %+v", v)
	}

	if err := json.Unmarshal([]byte(`false`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Kind != KindBool || v.Bool {
		t.Errorf("bool value = %+v", v)
	}

	if err := json.Unmarshal([]byte(`42`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Kind != KindText || v.Text != "42" {
		t.Errorf("numeric value = %+v", v)
	}

	if err := json.Unmarshal([]byte(`{"x":1}`), &v); err == nil {
		t.Error("object answer should be rejected")
	}
}

func TestValueIsZero(t *testing.T) {
	if !TextValue("").IsZero() {
		t.Error("empty text should be zero")
	}
	if !MultiValue(nil).IsZero() {
		t.Error("empty selection should be zero")
	}
	if BoolValue(false).IsZero() {
		t.Error("explicit false is an answer, not zero")
	}
	if TextValue("0").IsZero() {
		t.Error("literal 0 is an answer, not zero")
	}
}

func TestResponseSetRoundTrip(t *testing.T) {
	checkbox := uuid.New()
	consent := uuid.New()
	rs := ResponseSet{
		checkbox: MultiValue([]string{"A", "C"}),
		consent:  BoolValue(false),
	}

	data, err := json.Marshal(rs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got ResponseSet
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	v, ok := got.Get(checkbox)
	if !ok || v.Kind != KindMulti || len(v.Multi) != 2 {
		t.Errorf("checkbox answer = %+v, ok = %v", v, ok)
	}
	v, ok = got.Get(consent)
	if !ok || v.Kind != KindBool || v.Bool {
		t.Errorf("consent answer = %+v, ok = %v", v, ok)
	}
}
