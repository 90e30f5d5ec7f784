package media

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

type uploadStore interface {
	DeleteVideo(ctx context.Context, idToken, ref, publishID, videoID string) error
	DeleteImage(ctx context.Context, idToken, ref string) error
}

type streamStore interface {
	DeleteVideo(ctx context.Context, videoID string) error
}

// Cleaner removes stored media after the owning row changed. Deletions run
// in the background, detached from the request lifetime; failures are
// logged and never reach the caller.
type Cleaner struct {
	uploads uploadStore
	stream  streamStore
	logg    *logger.Logger
	wg      sync.WaitGroup
}

// NewCleaner wires the cleaner. Either store may be nil, in which case the
// matching deletions are skipped.
func NewCleaner(uploads uploadStore, stream streamStore, logg *logger.Logger) *Cleaner {
	return &Cleaner{uploads: uploads, stream: stream, logg: logg}
}

// DeleteImage removes the image stored under ref.
func (c *Cleaner) DeleteImage(ctx context.Context, ref *string) {
	if c == nil || c.uploads == nil || ref == nil || strings.TrimSpace(*ref) == "" {
		return
	}
	idToken := authenticity.CredentialsFromContext(ctx).IDToken
	key := *ref
	c.spawn(ctx, "image", key, func(ctx context.Context) error {
		return c.uploads.DeleteImage(ctx, idToken, key)
	})
}

// DeleteVideo removes the uploaded files of a publish stored under ref.
func (c *Cleaner) DeleteVideo(ctx context.Context, ref, publishID, videoID string) {
	if c == nil || c.uploads == nil || strings.TrimSpace(ref) == "" {
		return
	}
	idToken := authenticity.CredentialsFromContext(ctx).IDToken
	c.spawn(ctx, "video", ref, func(ctx context.Context) error {
		return c.uploads.DeleteVideo(ctx, idToken, ref, publishID, videoID)
	})
}

// DeleteStreamVideo removes a transcoded video from the stream provider.
func (c *Cleaner) DeleteStreamVideo(ctx context.Context, videoID string) {
	if c == nil || c.stream == nil || strings.TrimSpace(videoID) == "" {
		return
	}
	c.spawn(ctx, "stream_video", videoID, func(ctx context.Context) error {
		return c.stream.DeleteVideo(ctx, videoID)
	})
}

// Wait blocks until every pending deletion finished.
func (c *Cleaner) Wait() {
	if c == nil {
		return
	}
	c.wg.Wait()
}

func (c *Cleaner) spawn(ctx context.Context, kind, ref string, fn func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fn(detached); err != nil && c.logg != nil {
			logCtx := c.logg.WithFields(detached, map[string]any{
				"media_kind": kind,
				"media_ref":  ref,
			})
			c.logg.Error(logCtx, "media cleanup failed", err)
		}
	}()
}
