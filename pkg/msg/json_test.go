package msg

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONList(t *testing.T) {
	msgs := []Msg{
		&RoleAnnouncement{PlayerID: 42, KillerID: 7, Role: "leader", Assigned: true},
		&Disconnect{Reason: "kicked"},
		&Spectate{SpecNext: true},
	}

	data, err := MarshalJSONList(msgs)
	if err != nil {
		t.Fatalf("MarshalJSONList() error = %v", err)
	}
	if !strings.Contains(string(data), `"type": "RoleAnnouncement"`) {
		t.Errorf("MarshalJSONList() missing type name:\n%s", data)
	}

	got, err := UnmarshalJSONList(data)
	if err != nil {
		t.Fatalf("UnmarshalJSONList() error = %v", err)
	}
	if diff := cmp.Diff(msgs, got); diff != "" {
		t.Errorf("JSON round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalJSONList_SingleObject(t *testing.T) {
	got, err := UnmarshalJSONList([]byte(`{"type":"PerkModeRoleSelect","msg":{"role":"medic"}}`))
	if err != nil {
		t.Fatalf("UnmarshalJSONList() error = %v", err)
	}
	want := []Msg{&PerkModeRoleSelect{Role: "medic"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got, err = UnmarshalJSONList([]byte(`[{"type":"Spectate"}]`))
	if err != nil {
		t.Fatalf("UnmarshalJSONList(no body) error = %v", err)
	}
	if diff := cmp.Diff([]Msg{&Spectate{}}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalJSONList_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"not_json", `{"type":`, ErrInvalidJSON},
		{"scalar", `42`, ErrInvalidJSON},
		{"missing_type", `[{"msg":{}}]`, ErrInvalidJSON},
		{"numeric_type", `[{"type":14}]`, ErrInvalidJSON},
		{"unknown_type", `[{"type":"Teleport"}]`, ErrUnknownMsgType},
		{"bad_body", `[{"type":"Kill","msg":{"targetId":"x"}}]`, ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalJSONList([]byte(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("UnmarshalJSONList(%s) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}
