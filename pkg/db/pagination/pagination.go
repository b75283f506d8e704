package pagination

import (
	"encoding/base64"
	"encoding/json"
)

// Pagination binds the common cursor query params on list endpoints.
type Pagination struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit,default=50" validate:"gte=1,lte=250"`
}

// Cursor is the opaque position token. Encoded as base64 JSON so the client
// never needs to understand it.
type Cursor struct {
	CreatedAt string `json:"created_at,omitempty"`
	ID        string `json:"id,omitempty"`
}

type PageInfo struct {
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}

// Trim cuts an over-fetched result down to the page limit and reports whether
// more rows remain. Callers fetch limit+1 rows to learn HasMore cheaply.
func Trim[T any](data []*T, limit int, extractCursor func(*T) Cursor) ([]*T, *PageInfo) {
	if len(data) == 0 {
		return data, &PageInfo{}
	}

	info := &PageInfo{}
	if len(data) > limit {
		info.HasMore = true
		data = data[:limit]
	}

	next, err := EncodeCursor(extractCursor(data[len(data)-1]))
	if err == nil {
		info.NextCursor = next
	}

	return data, info
}
