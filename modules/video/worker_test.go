package video

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"carscene-server/modules/common/model"
	"carscene-server/modules/common/prediction"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProviderURL = "https://provider.test"

type fakeClipStore struct {
	storeErr error
	stored   int32
}

func (f *fakeClipStore) PublicURL(filePath string) string {
	return "https://cdn.example/" + filePath
}

func (f *fakeClipStore) StoreVideoClip(ctx context.Context, srcURL, userID string) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	atomic.AddInt32(&f.stored, 1)
	return "generated-clips/user-" + userID + "/clip_1_1.mp4", nil
}

func newTestPredictor(t *testing.T) *prediction.Client {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return prediction.NewClientWithHTTP(testProviderURL, "test-token", httpClient)
}

func newTestWorker(t *testing.T, ledger *fakeLedger, store *fakeJobStore, clips *fakeClipStore) *Worker {
	t.Helper()
	predictor := newTestPredictor(t)
	return NewWorker(nil, store, ledger, predictor, clips, nil,
		"video-model-v1", prediction.Policy{PollInterval: time.Millisecond, MaxAttempts: 5}, 5)
}

func seedPendingJob(store *fakeJobStore, jobID string) {
	store.jobs[jobID] = &model.VideoJob{
		JobID:        jobID,
		UserID:       "user-1",
		GenerationID: "gen-1",
		JobStatus:    model.StatusPending,
	}
}

func registerProvider(status string, output interface{}) {
	httpmock.RegisterResponder("POST", testProviderURL+"/v1/predictions",
		httpmock.NewJsonResponderOrPanic(201, map[string]interface{}{
			"id":     "pred-1",
			"status": "starting",
		}))
	httpmock.RegisterResponder("GET", testProviderURL+"/v1/predictions/pred-1",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"id":     "pred-1",
			"status": status,
			"output": output,
		}))
}

func TestProcessJobCompletes(t *testing.T) {
	ledger := newFakeLedger("user-1", 0)
	store := newFakeJobStore()
	seedGeneration(store, "user-1")
	seedPendingJob(store, "job-1")
	clips := &fakeClipStore{}

	worker := newTestWorker(t, ledger, store, clips)
	registerProvider("succeeded", "https://provider.test/clip.mp4")

	worker.ProcessJob(context.Background(), "job-1")

	job, err := store.GetVideoJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, job.JobStatus)
	require.NotNil(t, job.VideoPath)
	assert.Equal(t, "generated-clips/user-user-1/clip_1_1.mp4", *job.VideoPath)

	assert.Equal(t, int32(1), atomic.LoadInt32(&clips.stored))
	assert.Equal(t, 0, ledger.refunds)
}

func TestProcessJobProviderFailureRefunds(t *testing.T) {
	ledger := newFakeLedger("user-1", 0)
	store := newFakeJobStore()
	seedGeneration(store, "user-1")
	seedPendingJob(store, "job-1")

	worker := newTestWorker(t, ledger, store, &fakeClipStore{})
	registerProvider("failed", nil)

	worker.ProcessJob(context.Background(), "job-1")

	job, err := store.GetVideoJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, job.JobStatus)
	require.NotNil(t, job.ErrorMessage)

	// compensation: the 5 credits debited at submit come back
	assert.Equal(t, 1, ledger.refunds)
	assert.Equal(t, 5, ledger.balance("user-1"))
}

func TestProcessJobSkipsNonPending(t *testing.T) {
	ledger := newFakeLedger("user-1", 0)
	store := newFakeJobStore()
	seedGeneration(store, "user-1")
	seedPendingJob(store, "job-1")
	store.jobs["job-1"].JobStatus = model.StatusCompleted

	worker := newTestWorker(t, ledger, store, &fakeClipStore{})

	worker.ProcessJob(context.Background(), "job-1")

	job, err := store.GetVideoJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, job.JobStatus)
	assert.Equal(t, 0, ledger.refunds)
}

func TestProcessJobMissingGenerationRefunds(t *testing.T) {
	ledger := newFakeLedger("user-1", 0)
	store := newFakeJobStore()
	seedPendingJob(store, "job-1")

	worker := newTestWorker(t, ledger, store, &fakeClipStore{})

	worker.ProcessJob(context.Background(), "job-1")

	job, err := store.GetVideoJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, job.JobStatus)
	assert.Equal(t, 1, ledger.refunds)
}
