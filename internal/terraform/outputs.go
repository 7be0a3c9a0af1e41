package terraform

import (
	"encoding/json"
	"fmt"
)

// Output is one entry of terraform output -json.
type Output struct {
	Value     any  `json:"value"`
	Type      any  `json:"type"`
	Sensitive bool `json:"sensitive,omitempty"`
}

// StringValue returns the output value when it is a plain string, or "".
func (o Output) StringValue() string {
	s, _ := o.Value.(string)
	return s
}

// ParseOutputs decodes terraform output -json into a name-keyed map.
func ParseOutputs(raw []byte) (map[string]Output, error) {
	out := make(map[string]Output)
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode terraform outputs: %w", err)
	}
	return out, nil
}
