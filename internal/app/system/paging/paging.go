// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows in a paged list.
const PageSize = 50

// MaxPageSize caps the client-supplied limit.
const MaxPageSize = 100

// Params are the keyset paging inputs of a list request:
// ?before=<cursor> | ?after=<cursor>, and ?limit=<n>.
type Params struct {
	Before string
	After  string
	Limit  int
}

// Parse reads paging params from the query string. Invalid or missing limits
// fall back to PageSize; limits above MaxPageSize are clamped.
func Parse(r *http.Request) Params {
	p := Params{
		Before: query.Get(r, "before"),
		After:  query.Get(r, "after"),
		Limit:  PageSize,
	}
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Limit = min(n, MaxPageSize)
		}
	}
	return p
}

func (p Params) size() int {
	if p.Limit <= 0 {
		return PageSize
	}
	return p.Limit
}

// LimitPlusOne returns the look-ahead limit (one extra row detects hasNext).
func (p Params) LimitPlusOne() int64 { return int64(p.size() + 1) }

// Result holds the output of TrimPage.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims rows fetched with LimitPlusOne.
//
// Going backwards (Before set, rows already reversed to ascending): an extra
// row means an older page exists and the first element is dropped; HasNext
// is always true.
// Going forwards: an extra row is trimmed off the end; HasPrev is true only
// when After was set.
func TrimPage[T any](rows *[]T, p Params) Result {
	size := p.size()
	var res Result
	if p.Before != "" {
		if len(*rows) > size {
			*rows = (*rows)[1:]
			res.HasPrev = true
		}
		res.HasNext = true
		return res
	}
	if len(*rows) > size {
		*rows = (*rows)[:size]
		res.HasNext = true
	}
	res.HasPrev = p.After != ""
	return res
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // sort ascending, "gt" cursor
	Backward                  // sort descending, "lt" cursor
)

// KeysetConfig holds the resolved direction and cursor.
type KeysetConfig struct {
	Direction Direction
	SortOrder int // 1 ascending, -1 descending
	Cursor    *wafflemongo.Cursor
}

// Keyset determines direction and decodes the cursor. Before wins over After.
func (p Params) Keyset() KeysetConfig {
	cfg := KeysetConfig{Direction: Forward, SortOrder: 1}
	switch {
	case p.Before != "":
		cfg.Direction = Backward
		cfg.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(p.Before); ok {
			cfg.Cursor = &c
		}
	case p.After != "":
		if c, ok := wafflemongo.DecodeCursor(p.After); ok {
			cfg.Cursor = &c
		}
	}
	return cfg
}

// ApplyToFind sets sort (sortField, _id) and the look-ahead limit.
func (cfg KeysetConfig) ApplyToFind(find *options.FindOptions, sortField string, p Params) {
	find.SetSort(bson.D{
		{Key: sortField, Value: cfg.SortOrder},
		{Key: "_id", Value: cfg.SortOrder},
	}).SetLimit(p.LimitPlusOne())
}

// KeysetWindow returns the cursor condition for the filter, or nil.
func (cfg KeysetConfig) KeysetWindow(sortField string) bson.M {
	if cfg.Cursor == nil {
		return nil
	}
	dir := "gt"
	if cfg.Direction == Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, cfg.Cursor.CI, cfg.Cursor.ID)
}

// Reverse reverses a slice in place.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors encodes cursors for the first and last rows.
func BuildCursors[T any](rows []T, keyFn func(T) string, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	first, last := rows[0], rows[len(rows)-1]
	return wafflemongo.EncodeCursor(keyFn(first), idFn(first)),
		wafflemongo.EncodeCursor(keyFn(last), idFn(last))
}

// Page is the JSON envelope for keyset-paged lists.
type Page[T any] struct {
	Items      []T    `json:"items"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
	PrevCursor string `json:"prev_cursor,omitempty"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Finish restores ascending order for backward pages, trims the look-ahead
// row, and builds the envelope.
func Finish[T any](rows []T, p Params, keyFn func(T) string, idFn func(T) primitive.ObjectID) Page[T] {
	if p.Before != "" {
		Reverse(rows)
	}
	res := TrimPage(&rows, p)
	if rows == nil {
		rows = []T{}
	}
	prev, next := BuildCursors(rows, keyFn, idFn)
	page := Page[T]{Items: rows, HasPrev: res.HasPrev, HasNext: res.HasNext}
	if res.HasPrev {
		page.PrevCursor = prev
	}
	if res.HasNext {
		page.NextCursor = next
	}
	return page
}
