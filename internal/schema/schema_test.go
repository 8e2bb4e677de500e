package schema

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func testSchema() Schema {
	return Schema{
		Name: "playlist",
		Fields: []Field{
			Req("uid", String),
			WithDefault("description", String, &types.AttributeValueMemberS{Value: ""}),
			Opt("audio_file", Map),
		},
		Internal: []string{"pk", "sk", "created_ts"},
	}
}

func TestNormalize_StripsInternalAttributes(t *testing.T) {
	raw := map[string]types.AttributeValue{
		"pk":          &types.AttributeValueMemberS{Value: "ROOMPK#r1"},
		"sk":          &types.AttributeValueMemberS{Value: "PLAYLIST#p1"},
		"created_ts":  &types.AttributeValueMemberN{Value: "1700000000000"},
		"uid":         &types.AttributeValueMemberS{Value: "p1"},
		"description": &types.AttributeValueMemberS{Value: "d"},
	}

	out, err := testSchema().Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"pk", "sk", "created_ts"} {
		if _, ok := out[name]; ok {
			t.Errorf("expected %q to be stripped", name)
		}
	}
	if _, ok := raw["pk"]; !ok {
		t.Error("expected raw item to be left untouched")
	}
}

func TestNormalize_FallbackDefault(t *testing.T) {
	raw := map[string]types.AttributeValue{
		"uid": &types.AttributeValueMemberS{Value: "p1"},
	}

	out, err := testSchema().Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := out["description"].(*types.AttributeValueMemberS)
	if !ok || v.Value != "" {
		t.Errorf("expected description to default to empty string, got %#v", out["description"])
	}
	if _, ok := out["audio_file"]; ok {
		t.Error("expected optional audio_file to stay absent")
	}
}

func TestNormalize_NullTreatedAsMissing(t *testing.T) {
	raw := map[string]types.AttributeValue{
		"uid":         &types.AttributeValueMemberS{Value: "p1"},
		"description": &types.AttributeValueMemberNULL{Value: true},
		"audio_file":  &types.AttributeValueMemberNULL{Value: true},
	}

	out, err := testSchema().Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := out["description"].(*types.AttributeValueMemberS); !ok || v.Value != "" {
		t.Errorf("expected NULL description to fall back, got %#v", out["description"])
	}
	if _, ok := out["audio_file"]; ok {
		t.Error("expected NULL optional field to be dropped")
	}
}

func TestNormalize_RequiredMissing(t *testing.T) {
	_, err := testSchema().Normalize(map[string]types.AttributeValue{})
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fe.Field != "uid" || fe.Reason != "missing" {
		t.Errorf("unexpected field error: %v", fe)
	}
}

func TestNormalize_WrongType(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value types.AttributeValue
	}{
		{"required", "uid", &types.AttributeValueMemberN{Value: "1"}},
		{"fallback", "description", &types.AttributeValueMemberBOOL{Value: true}},
		{"optional", "audio_file", &types.AttributeValueMemberS{Value: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]types.AttributeValue{
				"uid": &types.AttributeValueMemberS{Value: "p1"},
			}
			raw[tt.field] = tt.value

			_, err := testSchema().Normalize(raw)
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FieldError, got %v", err)
			}
			if fe.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, fe.Field)
			}
		})
	}
}

func TestNormalize_PassesUnknownAttributes(t *testing.T) {
	raw := map[string]types.AttributeValue{
		"uid":   &types.AttributeValueMemberS{Value: "p1"},
		"extra": &types.AttributeValueMemberS{Value: "kept"},
	}

	out, err := testSchema().Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["extra"]; !ok {
		t.Error("expected undeclared attribute to pass through")
	}
}

func TestPolicyString(t *testing.T) {
	tests := map[Policy]string{
		Required:   "required",
		Optional:   "optional",
		Fallback:   "fallback",
		Policy(42): "policy(42)",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Policy(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}
