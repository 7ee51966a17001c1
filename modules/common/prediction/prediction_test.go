package prediction

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"carscene-server/modules/common/apperr"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://provider.test"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClientWithHTTP(testBaseURL, "test-token", httpClient)
}

func fastPolicy(maxAttempts int) Policy {
	return Policy{PollInterval: time.Millisecond, MaxAttempts: maxAttempts}
}

func TestSubmit(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("POST", testBaseURL+"/v1/predictions",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Token test-token", req.Header.Get("Authorization"))

			var body Spec
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "model-v1", body.Version)

			return httpmock.NewJsonResponse(201, map[string]interface{}{
				"id":     "job-123",
				"status": StatusStarting,
			})
		})

	handle, err := client.Submit(context.Background(), Spec{
		Version: "model-v1",
		Input:   map[string]interface{}{"prompt": "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "job-123", handle.ID)
	assert.False(t, handle.SubmittedAt.IsZero())
}

func TestSubmitRejected(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("POST", testBaseURL+"/v1/predictions",
		httpmock.NewStringResponder(422, `{"detail":"invalid version"}`))

	_, err := client.Submit(context.Background(), Spec{Version: "bad"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrProviderFailed))
}

func TestAwaitCompletionSucceedsAfterPolls(t *testing.T) {
	client := newTestClient(t)

	var polls int32
	httpmock.RegisterResponder("GET", testBaseURL+"/v1/predictions/job-123",
		func(req *http.Request) (*http.Response, error) {
			n := atomic.AddInt32(&polls, 1)
			status := StatusProcessing
			var output interface{}
			if n >= 3 {
				status = StatusSucceeded
				output = "https://provider.test/result.png"
			}
			return httpmock.NewJsonResponse(200, map[string]interface{}{
				"id":     "job-123",
				"status": status,
				"output": output,
			})
		})

	output, err := client.AwaitCompletion(context.Background(),
		&JobHandle{ID: "job-123"}, fastPolicy(10))
	require.NoError(t, err)

	url, err := output.FirstString()
	require.NoError(t, err)
	assert.Equal(t, "https://provider.test/result.png", url)

	// [processing, processing, succeeded] means exactly three polls
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestAwaitCompletionProviderFailure(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testBaseURL+"/v1/predictions/job-123",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"id":     "job-123",
			"status": StatusFailed,
			"error":  "NSFW content detected",
			"logs":   "step 1 ok\nstep 2 failed",
		}))

	_, err := client.AwaitCompletion(context.Background(),
		&JobHandle{ID: "job-123"}, fastPolicy(10))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrProviderFailed))

	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, StatusFailed, details["status"])
	assert.Equal(t, "NSFW content detected", details["error"])
}

func TestAwaitCompletionCanceled(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testBaseURL+"/v1/predictions/job-123",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"id":     "job-123",
			"status": StatusCanceled,
		}))

	_, err := client.AwaitCompletion(context.Background(),
		&JobHandle{ID: "job-123"}, fastPolicy(10))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrProviderFailed))
}

func TestAwaitCompletionTimesOut(t *testing.T) {
	client := newTestClient(t)

	var polls int32
	httpmock.RegisterResponder("GET", testBaseURL+"/v1/predictions/job-123",
		func(req *http.Request) (*http.Response, error) {
			atomic.AddInt32(&polls, 1)
			return httpmock.NewJsonResponse(200, map[string]interface{}{
				"id":     "job-123",
				"status": StatusProcessing,
			})
		})

	_, err := client.AwaitCompletion(context.Background(),
		&JobHandle{ID: "job-123"}, fastPolicy(3))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrTimedOut))
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestAwaitCompletionHardFailsOnPollError(t *testing.T) {
	client := newTestClient(t)

	var polls int32
	httpmock.RegisterResponder("GET", testBaseURL+"/v1/predictions/job-123",
		func(req *http.Request) (*http.Response, error) {
			atomic.AddInt32(&polls, 1)
			return httpmock.NewStringResponse(500, "internal error"), nil
		})

	_, err := client.AwaitCompletion(context.Background(),
		&JobHandle{ID: "job-123"}, fastPolicy(10))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrProviderFailed))

	// no retry on poll errors
	assert.Equal(t, int32(1), atomic.LoadInt32(&polls))
}

func TestOutputFirstString(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"single string", `"https://x/1.png"`, "https://x/1.png", false},
		{"string list", `["https://x/1.png","https://x/2.png"]`, "https://x/1.png", false},
		{"empty string", `""`, "", true},
		{"empty list", `[]`, "", true},
		{"object", `{"url":"https://x/1.png"}`, "", true},
		{"number list", `[1,2]`, "", true},
		{"null", `null`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &Output{raw: json.RawMessage(tt.raw)}
			got, err := output.FirstString()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.ErrInvalidOutput))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}

	t.Run("nil output", func(t *testing.T) {
		var output *Output
		_, err := output.FirstString()
		assert.True(t, apperr.Is(err, apperr.ErrInvalidOutput))
	})
}
