package unpack

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/electron-stager/internal/domain/stage"
)

// toStruct converts a request to its wire form using the worker JSON keys.
func toStruct(req *stage.UnpackRequest) (*structpb.Struct, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode unpack request: %w", err)
	}

	var fields map[string]any
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode unpack request: %w", err)
	}

	message, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode unpack request: %w", err)
	}

	return message, nil
}

// fromStruct decodes a wire request. Unknown keys are ignored.
func fromStruct(message *structpb.Struct) (*stage.UnpackRequest, error) {
	raw, err := json.Marshal(message.AsMap())
	if err != nil {
		return nil, fmt.Errorf("decode unpack request: %w", err)
	}

	req := new(stage.UnpackRequest)
	if err = json.Unmarshal(raw, req); err != nil {
		return nil, fmt.Errorf("decode unpack request: %w", err)
	}

	return req, nil
}
