package main

import (
	"context"
	"log/slog"

	"github.com/duke605/ilsang-bot/ilsang"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

const imageFetchConcurrency = 8

// ImageCache keeps recently downloaded images in memory keyed by image ID
type ImageCache struct {
	client ilsang.ImageService
	cache  *lru.Cache[string, []byte]
}

func NewImageCache(client ilsang.ImageService, size int) (*ImageCache, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}

	return &ImageCache{
		client: client,
		cache:  cache,
	}, nil
}

func (ic *ImageCache) Get(ctx context.Context, imageID string) ([]byte, error) {
	if b, ok := ic.cache.Get(imageID); ok {
		return b, nil
	}

	b, _, err := ic.client.GetImage(imageID, ilsang.RequestOptionWithContext(ctx))
	if err != nil {
		return nil, err
	}

	ic.cache.Add(imageID, b)
	return b, nil
}

// Attach downloads the image of every quest concurrently. A quest whose image cannot be
// downloaded is left without one
func (ic *ImageCache) Attach(ctx context.Context, items []*QuestItem) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(imageFetchConcurrency)

	for _, item := range items {
		if item.QuestImage == "" {
			continue
		}

		g.Go(func() error {
			b, err := ic.Get(ctx, item.QuestImage)
			if err != nil {
				slog.WarnContext(ctx, "Failed to fetch quest image", "quest_id", item.QuestID, "image_id", item.QuestImage, "error", err)
				return nil
			}

			item.Image = b
			return nil
		})
	}

	g.Wait()
}
