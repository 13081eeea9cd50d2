package ilsang

import (
	"net/http"
	"slices"
)

type XPLog struct {
	RecordID   string `json:"recordId"`
	Title      string `json:"title"`
	XpPoint    int    `json:"xpPoint"`
	CreateDate string `json:"createDate"`
}

type XPService interface {
	GetXPLog(userID, title string, page, size int, dst *ResponseWithPage[[]XPLog], opts ...RequestOption) (*http.Response, error)
}

type xpService struct {
	service
}

func NewXPService(c Client) XPService {
	return &xpService{service{path: "xp", client: c}}
}

func (xs *xpService) GetXPLog(userID, title string, page, size int, dst *ResponseWithPage[[]XPLog], opts ...RequestOption) (*http.Response, error) {
	opts = append(slices.Clip(opts),
		RequestOptionWithQueryParams("userId", userID, "title", title),
		RequestOptionWithPage(page, size),
	)

	return xs.getJSON("", dst, opts...)
}
