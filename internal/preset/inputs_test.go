package preset

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestInputValue_JSON(t *testing.T) {
	var inputs TestInputs
	data := `{"name":"Alice","photo":{"mediaAssetId":"a1","url":"https://cdn/p.png"},"gone":null}`
	if err := json.Unmarshal([]byte(data), &inputs); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if got := inputs.TextOf("name"); got != "Alice" {
		t.Errorf("expected Alice, got %q", got)
	}
	mv, ok := inputs.MediaOf("photo")
	if !ok || mv.URL != "https://cdn/p.png" || mv.MediaAssetID != "a1" {
		t.Errorf("unexpected media %+v", mv)
	}
	if inputs["gone"].IsSet() {
		t.Error("expected null to be unset")
	}
	if inputs.TextOf("photo") != "" {
		t.Error("expected media input to have no text")
	}
	if _, ok := inputs.MediaOf("name"); ok {
		t.Error("expected text input to have no media")
	}

	t.Run("rejects other kinds", func(t *testing.T) {
		var v InputValue
		if err := json.Unmarshal([]byte(`42`), &v); err == nil {
			t.Error("expected error for number")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		out, err := json.Marshal(inputs)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var back TestInputs
		if err := json.Unmarshal(out, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if diff := cmp.Diff(inputs, back); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestInputValue_YAML(t *testing.T) {
	var inputs TestInputs
	data := "name: Alice\ncount: 3\nphoto:\n  mediaAssetId: a1\n  url: https://cdn/p.png\ngone: null\n"
	if err := yaml.Unmarshal([]byte(data), &inputs); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got := inputs.TextOf("count"); got != "3" {
		t.Errorf("expected scalar as text, got %q", got)
	}
	if _, ok := inputs.MediaOf("photo"); !ok {
		t.Error("expected media input")
	}
	if inputs["gone"].IsSet() {
		t.Error("expected null to be unset")
	}
}

func TestTestInputs_Merge(t *testing.T) {
	base := TestInputs{
		"name":  TextInput("Alice"),
		"photo": MediaInput(MediaValue{MediaAssetID: "a1", URL: "u1"}),
	}
	merged, err := base.Merge(TestInputs{
		"name":  {},
		"style": TextInput("modern"),
	})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	want := TestInputs{
		"photo": MediaInput(MediaValue{MediaAssetID: "a1", URL: "u1"}),
		"style": TextInput("modern"),
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	if base.TextOf("name") != "Alice" {
		t.Error("expected merge to leave the receiver untouched")
	}
}

func TestTestInputs_Clone(t *testing.T) {
	orig := TestInputs{"photo": MediaInput(MediaValue{URL: "u1"}), "name": TextInput("a")}
	cp, err := orig.Clone()
	if err != nil {
		t.Fatalf("clone failed: %v", err)
	}
	cp["photo"].Media.URL = "changed"
	*cp["name"].Text = "b"

	if orig["photo"].Media.URL != "u1" {
		t.Error("expected clone to copy media values")
	}
	if orig.TextOf("name") != "a" {
		t.Error("expected clone to copy text values")
	}

	empty, err := TestInputs(nil).Clone()
	if err != nil || empty == nil {
		t.Errorf("expected empty non-nil map, got %v, %v", empty, err)
	}
}
