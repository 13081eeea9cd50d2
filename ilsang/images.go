package ilsang

import (
	"io"
	"net/http"
)

type ImageService interface {
	// GetImage returns the raw bytes of the image
	GetImage(imageID string, opts ...RequestOption) ([]byte, *http.Response, error)
}

type imageService struct {
	service
}

func NewImageService(c Client) ImageService {
	return &imageService{service{path: "image", client: c}}
}

func (is *imageService) GetImage(imageID string, opts ...RequestOption) ([]byte, *http.Response, error) {
	resp, err := is.do(http.MethodGet, imageID, opts...)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	return b, resp, nil
}
