package ilsang

type Response[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type ResponseWithPage[T any] struct {
	Status     int    `json:"status"`
	Message    string `json:"message"`
	Data       T      `json:"data"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
	Size       int    `json:"size"`
	Page       int    `json:"page"`
}
