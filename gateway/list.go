package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// List is the normalized shape of every collection endpoint. Callers never
// see whether the server returned a bare array or a paginated envelope.
type List[T any] struct {
	Items      []T
	TotalCount int
}

// listEnvelope covers the paginated wrappers the API serves. Different
// endpoint generations use count/results or total/items.
type listEnvelope[T any] struct {
	Count   *int `json:"count"`
	Total   *int `json:"total"`
	Results []T  `json:"results"`
	Items   []T  `json:"items"`
}

// DecodeList decodes a collection response body into a List regardless of
// whether the server sent a bare JSON array or an envelope object.
func DecodeList[T any](body []byte) (List[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return List[T]{Items: []T{}}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return List[T]{}, fmt.Errorf("decode list body: %w", err)
		}
		return List[T]{Items: items, TotalCount: len(items)}, nil
	}

	var env listEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return List[T]{}, fmt.Errorf("decode list envelope: %w", err)
	}

	items := env.Results
	if items == nil {
		items = env.Items
	}
	if items == nil {
		items = []T{}
	}

	total := len(items)
	switch {
	case env.Count != nil:
		total = *env.Count
	case env.Total != nil:
		total = *env.Total
	}

	return List[T]{Items: items, TotalCount: total}, nil
}
