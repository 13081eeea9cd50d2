package ilsang

import (
	"net/http"
	"slices"
)

type XpStat string

const (
	XpStatStrength    XpStat = "STRENGTH"
	XpStatIntellect   XpStat = "INTELLECT"
	XpStatFun         XpStat = "FUN"
	XpStatCharm       XpStat = "CHARM"
	XpStatSociability XpStat = "SOCIABILITY"
)

// XpStats lists every stat in display order
var XpStats = []XpStat{XpStatStrength, XpStatIntellect, XpStatFun, XpStatCharm, XpStatSociability}

type Reward struct {
	Content  XpStat `json:"content"`
	Quantity int    `json:"quantity"`
	Type     string `json:"type"`
}

type Quest struct {
	QuestID      string   `json:"questId"`
	QuestImage   string   `json:"questImage"`
	Type         string   `json:"type"`
	MissionTitle string   `json:"missionTitle"`
	WriterName   string   `json:"writerName"`
	Score        int      `json:"score"`
	RewardList   []Reward `json:"rewardList"`
	ExpireDate   string   `json:"expireDate"`
	CreateDate   string   `json:"createDate"`
}

// TotalXP sums the quantity of every reward on the quest
func (q *Quest) TotalXP() int {
	total := 0
	for _, r := range q.RewardList {
		total += r.Quantity
	}

	return total
}

type QuestService interface {
	GetUncompletedQuests(page, size int, dst *ResponseWithPage[[]Quest], opts ...RequestOption) (*http.Response, error)
	GetCompletedQuests(page, size int, dst *ResponseWithPage[[]Quest], opts ...RequestOption) (*http.Response, error)
}

type questService struct {
	service
}

func NewQuestService(c Client) QuestService {
	return &questService{service{path: "quest", client: c}}
}

func (qs *questService) GetUncompletedQuests(page, size int, dst *ResponseWithPage[[]Quest], opts ...RequestOption) (*http.Response, error) {
	opts = append(slices.Clip(opts), RequestOptionWithPage(page, size))

	return qs.getJSON("uncompleted", dst, opts...)
}

func (qs *questService) GetCompletedQuests(page, size int, dst *ResponseWithPage[[]Quest], opts ...RequestOption) (*http.Response, error) {
	opts = append(slices.Clip(opts), RequestOptionWithPage(page, size))

	return qs.getJSON("completed", dst, opts...)
}
