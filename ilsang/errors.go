package ilsang

import (
	"fmt"
	"net/http"
)

type HTTPError struct {
	Response *http.Response
}

func (err *HTTPError) Error() string {
	return fmt.Sprintf("ilsang: non-2xx status code %d", err.StatusCode())
}

func (err *HTTPError) StatusCode() int {
	if err.Response == nil {
		return 0
	}

	return err.Response.StatusCode
}

func (err *HTTPError) IsClientError() bool {
	return err.StatusCode() >= 400 && err.StatusCode() < 500
}

func (err *HTTPError) IsServerError() bool {
	return err.StatusCode() >= 500 && err.StatusCode() < 600
}
