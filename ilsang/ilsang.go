package ilsang

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/ratelimit"
)

type service struct {
	path   string
	client Client
}

func (srv *service) do(method, path string, opts ...RequestOption) (*http.Response, error) {
	path, err := url.JoinPath(srv.path, path)
	if err != nil {
		return nil, err
	}

	return srv.client.Do(method, path, opts...)
}

// getJSON performs a GET and decodes the body into dst
func (srv *service) getJSON(path string, dst any, opts ...RequestOption) (*http.Response, error) {
	resp, err := srv.do(http.MethodGet, path, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	err = json.NewDecoder(resp.Body).Decode(dst)
	if err != nil {
		return nil, err
	}

	return resp, err
}

type Client interface {
	Do(method, path string, opts ...RequestOption) (*http.Response, error)

	QuestService
	ChallengeService
	XPService
	UserService
	ImageService
}

type client struct {
	httpClient        *http.Client
	baseURL           *url.URL
	limiter           ratelimit.Limiter
	globalRequestOpts []RequestOption

	QuestService
	ChallengeService
	XPService
	UserService
	ImageService
}

type ClientOption = func(*client)
type RequestOption = func(*http.Request) *http.Request

func ClientOptionWithHTTPClient(c *http.Client) ClientOption {
	return func(cl *client) {
		cl.httpClient = c
	}
}

func ClientOptionGlobalRequestOption(opt RequestOption) ClientOption {
	return func(cl *client) {
		cl.globalRequestOpts = append(cl.globalRequestOpts, opt)
	}
}

// ClientOptionWithRateLimiter paces every request made by the client through l
func ClientOptionWithRateLimiter(l ratelimit.Limiter) ClientOption {
	return func(cl *client) {
		cl.limiter = l
	}
}

func RequestOptionWithContext(ctx context.Context) RequestOption {
	return func(r *http.Request) *http.Request {
		return r.WithContext(ctx)
	}
}

func RequestOptionWithQueryParams(kvpairs ...string) RequestOption {
	if len(kvpairs)%2 != 0 {
		panic(errors.New("ilsang: kvpairs must have a length that is a multiple of 2"))
	}

	return func(r *http.Request) *http.Request {
		q := r.URL.Query()
		for i := 0; i < len(kvpairs); i += 2 {
			key := kvpairs[i]
			value := kvpairs[i+1]

			q.Set(key, value)
		}

		r.URL.RawQuery = q.Encode()
		return r
	}
}

// RequestOptionWithPage sets the zero based page and the page size
func RequestOptionWithPage(page, size int) RequestOption {
	return RequestOptionWithQueryParams(
		"page", strconv.Itoa(page),
		"size", strconv.Itoa(size),
	)
}

func NewClient(baseURL string, opts ...ClientOption) (Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	c := &client{baseURL: u, httpClient: http.DefaultClient, limiter: ratelimit.NewUnlimited()}
	for _, opt := range opts {
		opt(c)
	}

	c.QuestService = NewQuestService(c)
	c.ChallengeService = NewChallengeService(c)
	c.XPService = NewXPService(c)
	c.UserService = NewUserService(c)
	c.ImageService = NewImageService(c)

	return c, nil
}

func (client *client) Do(method, path string, opts ...RequestOption) (*http.Response, error) {
	u := client.baseURL.JoinPath(path)
	req, err := http.NewRequest(method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	for _, opt := range client.globalRequestOpts {
		req = opt(req)
	}
	for _, opt := range opts {
		req = opt(req)
	}

	// Take can block for a while so the request may have been cancelled in the meantime
	client.limiter.Take()
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &HTTPError{resp}
	}

	return resp, err
}
