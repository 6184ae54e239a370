package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

// ToStruct converts a JSON-encodable object into a Struct. Component order is not kept:
// Struct fields are an unordered map.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("convert response: %w", err)
	}
	return out, nil
}

// ItemsStruct wraps a list response as {"items": [...]}.
func ItemsStruct(items any) (*structpb.Struct, error) {
	return ToStruct(map[string]any{"items": items})
}

// FromStruct decodes a Struct into a JSON-decodable target.
func FromStruct(s *structpb.Struct, out any) error {
	if s == nil {
		return errors.New("request cannot be nil")
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// StringField returns a required string field.
func StringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("missing field %q", name)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || str.StringValue == "" {
		return "", fmt.Errorf("field %q must be a non-empty string", name)
	}
	return str.StringValue, nil
}

// IntField returns a required integral number field.
func IntField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("missing field %q", name)
	}
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || num.NumberValue != math.Trunc(num.NumberValue) {
		return 0, fmt.Errorf("field %q must be an integer", name)
	}
	return int(num.NumberValue), nil
}

// StatusFromError maps error kinds onto gRPC codes.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, utils.ErrInvalidFormat):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
