// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"encoding/json"
	"fmt"
	"os"
)

// Category is one element of the JSON deliverable.
type Category struct {
	Category     string `json:"Category"`
	ItemizedList any    `json:"Itemized_List"`
}

// Categories lists src as JSON categories in context order.
func Categories(src Source) []Category {
	keys := src.Keys()
	out := make([]Category, 0, len(keys))
	for _, k := range keys {
		v, _ := src.Value(k)
		out = append(out, Category{Category: k, ItemizedList: v})
	}
	return out
}

// MarshalJSON encodes src as the JSON deliverable.
func MarshalJSON(src Source) ([]byte, error) {
	data, err := json.MarshalIndent(Categories(src), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON writes the JSON deliverable for src to path.
func WriteJSON(path string, src Source) error {
	data, err := MarshalJSON(src)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
