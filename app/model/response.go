package model

// Every JSON answer is an envelope with a success flag. Failures carry the
// Indonesian message for the user and, when there is one, the cause.

type SuccessResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

type SuccessMessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MetaInfo echoes the effective listing parameters back to the client.
type MetaInfo struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Total  int64  `json:"total"`
	Pages  int    `json:"pages"`
	SortBy string `json:"sortBy"`
	Order  string `json:"order"`
	Search string `json:"search"`
}

type PaginationData[T any] struct {
	Items []T      `json:"items"`
	Meta  MetaInfo `json:"meta"`
}

// Paginate wraps one page of items, deriving the page count from
// meta.Total and meta.Limit.
func Paginate[T any](items []T, meta MetaInfo) PaginationData[T] {
	if items == nil {
		items = []T{}
	}
	if meta.Limit > 0 {
		meta.Pages = int((meta.Total + int64(meta.Limit) - 1) / int64(meta.Limit))
	}
	return PaginationData[T]{Items: items, Meta: meta}
}

type LoginResponse struct {
	User         LoginUser `json:"user"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	Redirect     string    `json:"redirect"`
}
