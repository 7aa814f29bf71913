package services

// Page is one slice of a listing plus what a client needs to page through it.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Size  int64 `json:"size"`
	Pages int64 `json:"pages"`
}

// Window is a normalized skip/limit pair.
type Window struct {
	Skip  int64
	Limit int64
}

// NewWindow clamps skip to >= 0 and limit to [1, maxLimit]. A zero limit
// means def.
func NewWindow(skip, limit, def, maxLimit int64) Window {
	if skip < 0 {
		skip = 0
	}
	if limit == 0 {
		limit = def
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Window{Skip: skip, Limit: limit}
}

func newPage[T any](items []T, total int64, w Window) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items: items,
		Total: total,
		Page:  w.Skip/w.Limit + 1,
		Size:  w.Limit,
		Pages: (total + w.Limit - 1) / w.Limit,
	}
}
