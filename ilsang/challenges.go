package ilsang

import (
	"net/http"
	"slices"
)

type Challenge struct {
	ChallengeID    string `json:"challengeId"`
	UserID         string `json:"userId"`
	QuestImageID   string `json:"questImageId"`
	MissionTitle   string `json:"missionTitle"`
	ReceiptImageID string `json:"receiptImageId"`
	Status         string `json:"status"`
	LikeCnt        int    `json:"likeCnt"`
	HateCnt        int    `json:"hateCnt"`
	CreatedAt      string `json:"createdAt"`
}

type ChallengeService interface {
	GetChallenges(page, size int, dst *ResponseWithPage[[]Challenge], opts ...RequestOption) (*http.Response, error)
}

type challengeService struct {
	service
}

func NewChallengeService(c Client) ChallengeService {
	return &challengeService{service{path: "challenge", client: c}}
}

func (cs *challengeService) GetChallenges(page, size int, dst *ResponseWithPage[[]Challenge], opts ...RequestOption) (*http.Response, error) {
	opts = append(slices.Clip(opts), RequestOptionWithPage(page, size))

	return cs.getJSON("", dst, opts...)
}
