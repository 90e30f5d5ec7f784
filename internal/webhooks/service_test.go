package webhooks

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/pkg/cloudflare"
	"github.com/angelmondragon/clipstream-backend/pkg/db/dbtest"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/security"
)

const (
	streamKey  = "stream-secret"
	alchemyKey = "alchemy-secret"
	encryptKey = "passphrase"
)

type fakeAnnouncer struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeAnnouncer) Announce(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

type fakeStream struct{}

func (fakeStream) GetWebhook(context.Context) (*cloudflare.Webhook, error) {
	return &cloudflare.Webhook{NotificationURL: "https://api.example.com/webhooks/cloudflare/finished"}, nil
}

func (fakeStream) ListLiveInputVideos(_ context.Context, uid string) ([]cloudflare.Video, error) {
	return []cloudflare.Video{{UID: uid + "-rec"}}, nil
}

type fixture struct {
	conn       *gorm.DB
	svc        *Service
	creator    models.Profile
	processing *fakeAnnouncer
	deletion   *fakeAnnouncer
	now        time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	account := dbtest.SeedAccount(t, conn, "0xABC", "uid-1")
	creator := dbtest.SeedProfile(t, conn, account, "alice")

	repo := publishes.NewRepository(conn)
	f := fixture{
		conn:       conn,
		creator:    creator,
		processing: &fakeAnnouncer{},
		deletion:   &fakeAnnouncer{},
		now:        time.Unix(1_700_000_000, 0),
	}
	deleter, err := NewDeleter(repo, f.deletion)
	require.NoError(t, err)
	f.svc, err = NewService(ServiceParams{
		Repo:              repo,
		Tx:                client,
		Cloudflare:        fakeStream{},
		Processing:        f.processing,
		Deleter:           deleter,
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		AlchemySigningKey: alchemyKey,
		StreamSigningKey:  streamKey,
		EncryptKey:        encryptKey,
		MaxSignatureAge:   time.Hour,
	})
	require.NoError(t, err)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f fixture) draft(t *testing.T) models.Publish {
	t.Helper()
	publish := dbtest.SeedPublish(t, f.conn, f.creator, enums.PublishTypeVideo, "clip.mp4")
	require.NoError(t, f.conn.Model(&models.Publish{}).Where("id = ?", publish.ID).
		Updates(map[string]any{"uploading": true, "publish_type": nil}).Error)
	return publish
}

func sign(body []byte, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("time=%d,sig1=%s", ts, security.HMACHex(streamKey, []byte(fmt.Sprintf("%d.%s", ts, body))))
}

func finished(publishID uuid.UUID, videoID string, duration float64) []byte {
	return []byte(fmt.Sprintf(`{"uid":%q,"readyToStream":true,"thumbnail":"https://cdn/t.jpg","preview":"https://cdn/p","duration":%v,`+
		`"playback":{"hls":"https://cdn/%s.m3u8","dash":"https://cdn/%s.mpd"},"meta":{"name":"%s clip.mp4","contentURI":"ipfs://x","contentRef":"ref/x"}}`,
		videoID, duration, videoID, videoID, publishID))
}

func (f fixture) load(t *testing.T, id uuid.UUID) models.Publish {
	t.Helper()
	var publish models.Publish
	require.NoError(t, f.conn.Preload("Playback").Where("id = ?", id).First(&publish).Error)
	return publish
}

func TestAddressUpdatedChecksSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	body := []byte(`{"webhookId":"wh_1","event":{"activity":[]}}`)

	require.NoError(t, f.svc.AddressUpdated(ctx, body, security.HMACHex(alchemyKey, body)))
	require.True(t, pkgerrors.IsCode(f.svc.AddressUpdated(ctx, body, "deadbeef"), pkgerrors.CodeUnauthorized))
	require.True(t, pkgerrors.IsCode(f.svc.AddressUpdated(ctx, body, ""), pkgerrors.CodeBadRequest))
}

func TestTranscodingFinishedStoresPlaybackAndClassifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.draft(t)

	body := finished(draft.ID, "vid-1", 42)
	require.NoError(t, f.svc.TranscodingFinished(ctx, body, sign(body, f.now.Add(-time.Minute))))

	got := f.load(t, draft.ID)
	require.False(t, got.Uploading)
	require.Equal(t, enums.PublishTypeShort, *got.PublishType)
	require.Equal(t, "ipfs://x", *got.ContentURI)
	require.NotNil(t, got.Playback)
	require.Equal(t, "vid-1", got.Playback.VideoID)
	require.Equal(t, "https://cdn/vid-1.m3u8", got.Playback.HLS)
	require.Nil(t, got.Playback.LiveStatus)

	body = finished(draft.ID, "vid-2", 600)
	require.NoError(t, f.svc.TranscodingFinished(ctx, body, sign(body, f.now)))
	got = f.load(t, draft.ID)
	require.Equal(t, enums.PublishTypeVideo, *got.PublishType)
	require.Equal(t, "vid-2", got.Playback.VideoID)

	var playbacks int64
	require.NoError(t, f.conn.Model(&models.Playback{}).Where("publish_id = ?", draft.ID).Count(&playbacks).Error)
	require.EqualValues(t, 1, playbacks)
	require.Equal(t, []string{draft.ID.String(), draft.ID.String()}, f.processing.ids)
}

func TestTranscodingFinishedKeepsLiveRecordingsAsVideo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	live := dbtest.SeedPublish(t, f.conn, f.creator, enums.PublishTypeVideo, "on air")
	require.NoError(t, f.conn.Model(&models.Publish{}).Where("id = ?", live.ID).Update("stream_type", enums.StreamTypeLive).Error)

	body := finished(live.ID, "rec-1", 30)
	require.NoError(t, f.svc.TranscodingFinished(ctx, body, sign(body, f.now)))

	got := f.load(t, live.ID)
	require.Equal(t, enums.PublishTypeVideo, *got.PublishType)
	require.Equal(t, enums.StreamTypeOnDemand, got.StreamType)
	require.Equal(t, enums.LiveStatusReady, *got.Playback.LiveStatus)
}

func TestTranscodingFinishedRejectsBadSignatures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.draft(t)
	body := finished(draft.ID, "vid-1", 42)

	err := f.svc.TranscodingFinished(ctx, body, sign(body, f.now.Add(-2*time.Hour)))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	require.Equal(t, "Signature expired", pkgerrors.As(err).Message())

	err = f.svc.TranscodingFinished(ctx, body, sign([]byte("other"), f.now))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	require.Empty(t, f.processing.ids)
	require.True(t, f.load(t, draft.ID).Uploading)
}

func TestTranscodingFinishedUnknownPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()
	body := finished(missing, "vid-1", 42)

	err := f.svc.TranscodingFinished(ctx, body, sign(body, f.now))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.Equal(t, []string{missing.String()}, f.processing.ids)
}

func TestTranscodingFinishedIgnoresUnreadyVideos(t *testing.T) {
	f := newFixture(t)
	draft := f.draft(t)
	body := []byte(fmt.Sprintf(`{"uid":"vid-1","readyToStream":false,"meta":{"name":"%s"}}`, draft.ID))

	require.NoError(t, f.svc.TranscodingFinished(context.Background(), body, sign(body, f.now)))
	require.True(t, f.load(t, draft.ID).Uploading)
	require.Empty(t, f.processing.ids)
}

func TestVideoDeletedDecryptsAndDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	publish := dbtest.SeedPublish(t, f.conn, f.creator, enums.PublishTypeVideo, "gone")

	encrypted, err := security.EncryptPassphrase([]byte(publish.ID.String()), encryptKey)
	require.NoError(t, err)
	envelope := PushEnvelope{Message: &PushMessage{
		Data:      base64.StdEncoding.EncodeToString([]byte(encrypted)),
		MessageID: "m-1",
	}}

	require.NoError(t, f.svc.VideoDeleted(ctx, envelope))
	var n int64
	require.NoError(t, f.conn.Model(&models.Publish{}).Where("id = ?", publish.ID).Count(&n).Error)
	require.Zero(t, n)
	require.Equal(t, []string{publish.ID.String()}, f.deletion.ids)

	require.True(t, pkgerrors.IsCode(f.svc.VideoDeleted(ctx, envelope), pkgerrors.CodeNotFound))
	require.True(t, pkgerrors.IsCode(f.svc.VideoDeleted(ctx, PushEnvelope{}), pkgerrors.CodeBadRequest))

	envelope.Message.Data = base64.StdEncoding.EncodeToString([]byte("not encrypted"))
	require.True(t, pkgerrors.IsCode(f.svc.VideoDeleted(ctx, envelope), pkgerrors.CodeBadRequest))
}

func TestLiveInputVideosAndWebhookProxy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hook, err := f.svc.TranscodeWebhook(ctx)
	require.NoError(t, err)
	require.Contains(t, hook.NotificationURL, "/webhooks/cloudflare/finished")

	videos, err := f.svc.LiveInputVideos(ctx, "live-1")
	require.NoError(t, err)
	require.Equal(t, "live-1-rec", videos[0].UID)

	_, err = f.svc.LiveInputVideos(ctx, " ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeBadUserInput))
}
