package inference

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	commonhttp "yoga-guide/internal/common/http"
	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// fakeSidecar records what it receives and answers with one fixed pose.
type fakeSidecar struct {
	mu        sync.Mutex
	model     string
	estimates []estimateRequest
	deleted   []string
	failNext  int
}

func (f *fakeSidecar) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		_ = msgpack.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.model = req.Model
		f.mu.Unlock()
		writeMsgpack(w, http.StatusCreated, createSessionResponse{SessionID: "sess-1"})
	})

	mux.HandleFunc("POST /v1/sessions/{id}/estimate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != contentType {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		var req estimateRequest
		if err := msgpack.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.estimates = append(f.estimates, req)
		fail := f.failNext > 0
		if fail {
			f.failNext--
		}
		f.mu.Unlock()

		if fail {
			writeMsgpack(w, http.StatusServiceUnavailable, errorResponse{Error: "model warming up"})
			return
		}
		writeMsgpack(w, http.StatusOK, estimateResponse{Poses: []models.Pose{{
			Score: 0.9,
			Keypoints: []models.Keypoint{
				{Name: models.KeypointLeftWrist, X: 100, Y: 40, Score: 0.8},
			},
		}}})
	})

	mux.HandleFunc("DELETE /v1/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func writeMsgpack(w http.ResponseWriter, status int, v interface{}) {
	body, _ := msgpack.Marshal(v)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func newTestClient(t *testing.T, url string) *Client {
	return NewClient(Config{BaseURL: url + "/", Model: "movenet-singlepose-lightning"},
		commonhttp.NewClient(2*time.Second), logger.NewTestLogger(t))
}

func TestEstimator_RoundTrip(t *testing.T) {
	fake := &fakeSidecar{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	ctx := context.Background()
	est, err := newTestClient(t, srv.URL).NewEstimator(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", est.SessionID())
	assert.Equal(t, "movenet-singlepose-lightning", fake.model)

	frame := models.Frame{Seq: 7, Width: 640, Height: 480, Format: "jpeg", Data: []byte{0xff, 0xd8, 0xff}}
	poses, err := est.Estimate(ctx, frame)
	require.NoError(t, err)

	require.Len(t, poses, 1)
	assert.InDelta(t, 0.9, poses[0].Score, 1e-9)
	kp := poses[0].Keypoint(models.KeypointLeftWrist)
	require.NotNil(t, kp)
	assert.Equal(t, 40.0, kp.Y)

	require.Len(t, fake.estimates, 1)
	assert.Equal(t, estimateRequest{Seq: 7, Width: 640, Height: 480, Format: "jpeg", Image: []byte{0xff, 0xd8, 0xff}}, fake.estimates[0])
}

func TestEstimator_DisposeDeletesSessionOnce(t *testing.T) {
	fake := &fakeSidecar{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	est, err := newTestClient(t, srv.URL).NewEstimator(context.Background())
	require.NoError(t, err)

	require.NoError(t, est.Dispose())
	require.NoError(t, est.Dispose())
	assert.Equal(t, []string{"sess-1"}, fake.deleted)

	_, err = est.Estimate(context.Background(), models.Frame{})
	assert.ErrorIs(t, err, ErrDisposed)
}

func TestEstimator_StatusError(t *testing.T) {
	fake := &fakeSidecar{failNext: 1}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	est, err := newTestClient(t, srv.URL).NewEstimator(context.Background())
	require.NoError(t, err)

	_, err = est.Estimate(context.Background(), models.Frame{Seq: 1})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "model warming up", se.Message)

	_, err = est.Estimate(context.Background(), models.Frame{Seq: 2})
	assert.NoError(t, err, "transient failure does not poison the session")
}

func TestNewEstimator_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url).NewEstimator(context.Background())
	assert.Error(t, err)
}
