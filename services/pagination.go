package services

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Meta describes one page of a listing.
type Meta struct {
	Page      int   `json:"page"`
	Limit     int   `json:"limit"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// Page is a slice of results plus its Meta.
type Page[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

// normalizePage applies the default page (1) and limit (10).
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func offset(page, limit int) int {
	return (page - 1) * limit
}

func newMeta(page, limit int, total int64) Meta {
	return Meta{
		Page:      page,
		Limit:     limit,
		Total:     total,
		TotalPage: (total + int64(limit) - 1) / int64(limit),
	}
}
