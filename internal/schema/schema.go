// Package schema applies per-field decode policies to raw DynamoDB items.
//
// A field is Required, Optional, or Fallback. Fallback fields decode to a
// declared default when absent, which lets old records survive schema
// evolution. Required fields fail the whole decode when missing or
// malformed.
package schema

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Policy controls how a missing attribute is treated.
type Policy int

const (
	Required Policy = iota
	Optional
	Fallback
)

func (p Policy) String() string {
	switch p {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Type is the DynamoDB attribute type a field must carry.
type Type string

const (
	String Type = "S"
	Number Type = "N"
	Map    Type = "M"
	List   Type = "L"
	Bool   Type = "BOOL"
)

// Field declares one attribute of an item.
type Field struct {
	Name    string
	Type    Type
	Policy  Policy
	Default types.AttributeValue
}

// Req declares a required field.
func Req(name string, t Type) Field {
	return Field{Name: name, Type: t, Policy: Required}
}

// Opt declares an optional field.
func Opt(name string, t Type) Field {
	return Field{Name: name, Type: t, Policy: Optional}
}

// WithDefault declares a fallback field.
func WithDefault(name string, t Type, def types.AttributeValue) Field {
	return Field{Name: name, Type: t, Policy: Fallback, Default: def}
}

// FieldError describes why a single field failed to decode.
type FieldError struct {
	Schema string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Schema, e.Field, e.Reason)
}

// Schema is an ordered set of field declarations for one entity kind.
type Schema struct {
	Name   string
	Fields []Field

	// Internal lists attributes that are stripped before decoding.
	Internal []string
}

// Normalize validates raw against the schema and returns a copy with the
// internal attributes removed and fallback defaults filled in. Attributes
// not declared by the schema are passed through unchanged. raw is never
// modified.
func (s Schema) Normalize(raw map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(raw)+len(s.Fields))
	for k, v := range raw {
		out[k] = v
	}
	for _, name := range s.Internal {
		delete(out, name)
	}

	for _, f := range s.Fields {
		v, present := out[f.Name]
		if present && isNull(v) {
			delete(out, f.Name)
			present = false
		}

		if !present {
			switch f.Policy {
			case Required:
				return nil, &FieldError{Schema: s.Name, Field: f.Name, Reason: "missing"}
			case Fallback:
				if f.Default != nil {
					out[f.Name] = f.Default
				}
			}
			continue
		}

		if got := TypeOf(v); got != f.Type {
			return nil, &FieldError{
				Schema: s.Name,
				Field:  f.Name,
				Reason: fmt.Sprintf("expected %s, got %s", f.Type, got),
			}
		}
	}
	return out, nil
}

// TypeOf returns the DynamoDB type of an attribute value.
func TypeOf(v types.AttributeValue) Type {
	switch v.(type) {
	case *types.AttributeValueMemberS:
		return String
	case *types.AttributeValueMemberN:
		return Number
	case *types.AttributeValueMemberM:
		return Map
	case *types.AttributeValueMemberL:
		return List
	case *types.AttributeValueMemberBOOL:
		return Bool
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case nil:
		return ""
	default:
		return Type(fmt.Sprintf("%T", v))
	}
}

func isNull(v types.AttributeValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(*types.AttributeValueMemberNULL)
	return ok
}
