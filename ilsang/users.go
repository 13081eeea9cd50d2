package ilsang

import "net/http"

type User struct {
	ID                     string `json:"id"`
	Status                 string `json:"status"`
	Nickname               string `json:"nickname"`
	XpPoint                int    `json:"xpPoint"`
	CouponCount            int    `json:"couponCount"`
	CompleteChallengeCount int    `json:"completeChallengeCount"`
}

type UserService interface {
	GetUser(dst *Response[User], opts ...RequestOption) (*http.Response, error)
}

type userService struct {
	service
}

func NewUserService(c Client) UserService {
	return &userService{service{path: "user", client: c}}
}

func (us *userService) GetUser(dst *Response[User], opts ...RequestOption) (*http.Response, error) {
	return us.getJSON("", dst, opts...)
}
