package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"carscene-server/modules/common/apperr"
	"carscene-server/modules/common/config"
)

// 프로바이더 작업 상태 값
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Client - submit/poll 방식 합성 프로바이더 클라이언트
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient - Client 생성
func NewClient() *Client {
	cfg := config.GetConfig()
	return &Client{
		baseURL: cfg.ProviderAPIURL,
		token:   cfg.ProviderAPIToken,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewClientWithHTTP - 테스트용 생성자
func NewClientWithHTTP(baseURL, token string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, token: token, httpClient: httpClient}
}

// Spec - 제출할 작업 정의 (모델 버전 + 입력)
type Spec struct {
	Version string                 `json:"version"`
	Input   map[string]interface{} `json:"input"`
}

// JobHandle - 제출된 작업 핸들
type JobHandle struct {
	ID          string
	SubmittedAt time.Time
}

// Policy - 폴링 정책 (간격 + 최대 시도 횟수)
type Policy struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// ImagePolicy - 이미지 합성용 폴링 정책
func ImagePolicy() Policy {
	cfg := config.GetConfig()
	return Policy{PollInterval: cfg.ImagePollInterval, MaxAttempts: cfg.ImagePollMaxAttempts}
}

// VideoPolicy - 비디오 생성용 폴링 정책
func VideoPolicy() Policy {
	cfg := config.GetConfig()
	return Policy{PollInterval: cfg.VideoPollInterval, MaxAttempts: cfg.VideoPollMaxAttempts}
}

// Output - 프로바이더 출력. 모델마다 형태가 다름 (단일 URL 문자열 또는 URL 배열)
type Output struct {
	raw json.RawMessage
}

// FirstString - 출력을 단일 URL 문자열로 정규화
// 문자열이면 그대로, 배열이면 첫 번째 문자열 원소, 그 외는 INVALID_OUTPUT
func (o *Output) FirstString() (string, error) {
	if o == nil || len(o.raw) == 0 {
		return "", apperr.New(apperr.ErrInvalidOutput, "provider returned empty output")
	}

	var single string
	if err := json.Unmarshal(o.raw, &single); err == nil {
		if single == "" {
			return "", apperr.New(apperr.ErrInvalidOutput, "provider returned empty output string")
		}
		return single, nil
	}

	var list []string
	if err := json.Unmarshal(o.raw, &list); err == nil {
		if len(list) == 0 || list[0] == "" {
			return "", apperr.New(apperr.ErrInvalidOutput, "provider returned empty output list")
		}
		return list[0], nil
	}

	return "", apperr.Newf(apperr.ErrInvalidOutput,
		"provider output has unexpected shape: %s", truncate(string(o.raw), 200))
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  interface{}     `json:"error"`
	Logs   string          `json:"logs"`
}

// Submit - 작업 제출 (POST /v1/predictions)
func (c *Client) Submit(ctx context.Context, spec Spec) (*JobHandle, error) {
	reqBody, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/predictions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	log.Printf("🚀 Submitting prediction (version: %s)", truncate(spec.Version, 20))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrProviderFailed, "failed to submit prediction", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apperr.Newf(apperr.ErrProviderFailed,
			"prediction submit returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result predictionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if result.ID == "" {
		return nil, apperr.New(apperr.ErrProviderFailed, "prediction submit returned no job id")
	}

	log.Printf("✅ Prediction submitted: %s", result.ID)
	return &JobHandle{ID: result.ID, SubmittedAt: time.Now()}, nil
}

// poll - 작업 상태 조회 (GET /v1/predictions/{id})
// 폴링 중 2xx 외 응답은 즉시 실패 처리됨 (재시도 없음)
func (c *Client) poll(ctx context.Context, jobID string) (*predictionResponse, error) {
	statusURL := fmt.Sprintf("%s/v1/predictions/%s", c.baseURL, jobID)

	req, err := http.NewRequestWithContext(ctx, "GET", statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrProviderFailed, "prediction poll request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.ErrProviderFailed,
			"prediction poll returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result predictionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal poll response: %w", err)
	}

	return &result, nil
}

// AwaitCompletion - 완료까지 폴링
// 첫 시도는 즉시, 이후 시도 사이에만 간격을 둠.
// 성공 → Output, 실패/취소 → PROVIDER_FAILED (진단 정보 포함), 횟수 초과 → TIMED_OUT
func (c *Client) AwaitCompletion(ctx context.Context, handle *JobHandle, policy Policy) (*Output, error) {
	log.Printf("🔄 Polling prediction %s (interval: %v, max: %d)",
		handle.ID, policy.PollInterval, policy.MaxAttempts)

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(policy.PollInterval)
		}

		result, err := c.poll(ctx, handle.ID)
		if err != nil {
			return nil, err
		}

		switch result.Status {
		case StatusSucceeded:
			log.Printf("✅ Prediction %s succeeded after %d poll(s)", handle.ID, attempt+1)
			return &Output{raw: result.Output}, nil

		case StatusFailed, StatusCanceled:
			log.Printf("❌ Prediction %s terminal status: %s", handle.ID, result.Status)
			return nil, apperr.Newf(apperr.ErrProviderFailed,
				"prediction %s: %s", result.Status, handle.ID).
				WithDetails(map[string]interface{}{
					"status": result.Status,
					"error":  result.Error,
					"logs":   truncate(result.Logs, 500),
				})

		case StatusStarting, StatusProcessing:
			// 계속 대기

		default:
			log.Printf("⚠️  Prediction %s unknown status: %s", handle.ID, result.Status)
		}
	}

	log.Printf("⏰ Prediction %s timed out after %d attempts", handle.ID, policy.MaxAttempts)
	return nil, apperr.Newf(apperr.ErrTimedOut,
		"prediction %s did not complete within %d attempts", handle.ID, policy.MaxAttempts)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
