package erpclient

import (
	"fmt"
	"net/url"
)

// Query holds request query parameters before normalization.
type Query map[string]any

// NormalizeQuery drops parameters that carry no value: nils and empty
// strings are removed, while zero and false are meaningful and kept.
// Idempotent, so it is safe to normalize an already normalized query.
func NormalizeQuery(q Query) Query {
	if q == nil {
		return nil
	}
	out := make(Query, len(q))
	for key, value := range q {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// encode renders the normalized query as a URL query string with keys in
// sorted order.
func (q Query) encode() string {
	values := url.Values{}
	for key, value := range NormalizeQuery(q) {
		values.Set(key, fmt.Sprint(value))
	}
	return values.Encode()
}
