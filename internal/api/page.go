package api

import (
	"bytes"
	"encoding/json"
)

// Page is one page of a list endpoint. The API returns either a DRF-style
// envelope {count, next, previous, results} or a plain JSON array; both
// decode into the same shape.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &p.Results); err != nil {
			return err
		}
		p.Count = len(p.Results)
		p.Next, p.Previous = nil, nil
		return nil
	}

	type envelope Page[T] // drop methods to avoid recursion
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*p = Page[T](env)
	return nil
}
