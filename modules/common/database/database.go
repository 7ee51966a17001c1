package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"carscene-server/modules/common/apperr"
	"carscene-server/modules/common/config"
	"carscene-server/modules/common/model"
	"github.com/supabase-community/supabase-go"
)

type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
func NewClient() *Client {
	cfg := config.GetConfig()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// SaveGeneration - 완료된 합성 결과를 car_scene_generations에 저장
func (c *Client) SaveGeneration(ctx context.Context, record *model.GenerationRecord) error {
	log.Printf("💾 Saving generation record: %s (user: %s)", record.GenerationID, record.UserID)

	insertData := map[string]interface{}{
		"generation_id":      record.GenerationID,
		"user_id":            record.UserID,
		"subject_image_path": record.SubjectImagePath,
		"scene_image_path":   record.SceneImagePath,
		"lat":                record.Lat,
		"lng":                record.Lng,
		"time_of_day":        record.TimeOfDay,
		"final_image_path":   record.FinalImagePath,
		"place_description":  record.PlaceDescription,
		"scene_description":  record.SceneDescription,
		"is_revision":        record.IsRevision,
		"revision_used":      record.RevisionUsed,
	}
	if record.CustomInstructions != nil {
		insertData["custom_instructions"] = *record.CustomInstructions
	}
	if record.OriginalGenerationID != nil {
		insertData["original_generation_id"] = *record.OriginalGenerationID
	}

	_, _, err := c.supabase.From("car_scene_generations").
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to insert generation record: %w", err)
	}

	log.Printf("✅ Generation record saved: %s", record.GenerationID)
	return nil
}

// GetGeneration - generation_id로 조회
func (c *Client) GetGeneration(ctx context.Context, generationID string) (*model.GenerationRecord, error) {
	log.Printf("🔍 Fetching generation: %s", generationID)

	var records []model.GenerationRecord

	data, _, err := c.supabase.From("car_scene_generations").
		Select("*", "exact", false).
		Eq("generation_id", generationID).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query car_scene_generations: %w", err)
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse generation response: %w", err)
	}

	if len(records) == 0 {
		return nil, apperr.Newf(apperr.ErrNotFound, "generation not found: %s", generationID)
	}

	return &records[0], nil
}

// MarkRevisionUsed - 원본 생성의 리비전 사용 플래그를 올림 (조건부 업데이트)
// revision_used=false인 행만 업데이트됨. 0행이면 다른 요청이 먼저 올린 것 → CONFLICT
// 리비전 사가 시작 시점에 먼저 커밋되고, 실패 시 RevertRevisionUsed로 되돌림.
func (c *Client) MarkRevisionUsed(ctx context.Context, generationID string) error {
	log.Printf("📝 Marking revision used: %s", generationID)

	data, _, err := c.supabase.From("car_scene_generations").
		Update(map[string]interface{}{
			"revision_used": true,
			"updated_at":    "now()",
		}, "representation", "").
		Eq("generation_id", generationID).
		Eq("revision_used", "false").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update revision flag: %w", err)
	}

	var updated []json.RawMessage
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("failed to parse update response: %w", err)
	}

	if len(updated) == 0 {
		log.Printf("⚠️  Revision flag already taken for generation %s", generationID)
		return apperr.New(apperr.ErrConflict, "revision already used for this generation")
	}

	return nil
}

// RevertRevisionUsed - 리비전 사가 보상 시 플래그 원복
func (c *Client) RevertRevisionUsed(ctx context.Context, generationID string) error {
	log.Printf("↩️  Reverting revision flag: %s", generationID)

	_, _, err := c.supabase.From("car_scene_generations").
		Update(map[string]interface{}{
			"revision_used": false,
			"updated_at":    "now()",
		}, "", "").
		Eq("generation_id", generationID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to revert revision flag: %w", err)
	}
	return nil
}

// CreateVideoJob - car_video_jobs에 대기 상태 작업 생성
func (c *Client) CreateVideoJob(ctx context.Context, job *model.VideoJob) error {
	log.Printf("💾 Creating video job: %s (generation: %s)", job.JobID, job.GenerationID)

	insertData := map[string]interface{}{
		"job_id":        job.JobID,
		"user_id":       job.UserID,
		"generation_id": job.GenerationID,
		"job_status":    job.JobStatus,
	}
	if job.MotionPrompt != nil {
		insertData["motion_prompt"] = *job.MotionPrompt
	}

	_, _, err := c.supabase.From("car_video_jobs").
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to insert video job: %w", err)
	}

	log.Printf("✅ Video job created: %s", job.JobID)
	return nil
}

// GetVideoJob - job_id로 조회
func (c *Client) GetVideoJob(ctx context.Context, jobID string) (*model.VideoJob, error) {
	var jobs []model.VideoJob

	data, _, err := c.supabase.From("car_video_jobs").
		Select("*", "exact", false).
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query car_video_jobs: %w", err)
	}

	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse video job response: %w", err)
	}

	if len(jobs) == 0 {
		return nil, apperr.Newf(apperr.ErrNotFound, "video job not found: %s", jobID)
	}

	return &jobs[0], nil
}

// UpdateVideoJobStatus - 작업 상태 업데이트
func (c *Client) UpdateVideoJobStatus(ctx context.Context, jobID string, status string) error {
	log.Printf("📝 Updating video job %s status to: %s", jobID, status)

	_, _, err := c.supabase.From("car_video_jobs").
		Update(map[string]interface{}{
			"job_status": status,
			"updated_at": "now()",
		}, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update video job status: %w", err)
	}

	log.Printf("✅ Video job %s status updated to: %s", jobID, status)
	return nil
}

// CompleteVideoJob - 결과 경로와 함께 완료 처리
func (c *Client) CompleteVideoJob(ctx context.Context, jobID string, videoPath string) error {
	log.Printf("📝 Completing video job %s: %s", jobID, videoPath)

	_, _, err := c.supabase.From("car_video_jobs").
		Update(map[string]interface{}{
			"job_status": model.StatusCompleted,
			"video_path": videoPath,
			"updated_at": "now()",
		}, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to complete video job: %w", err)
	}

	log.Printf("✅ Video job completed: %s", jobID)
	return nil
}

// FailVideoJob - 에러 메시지와 함께 실패 처리
func (c *Client) FailVideoJob(ctx context.Context, jobID string, errorMessage string) error {
	log.Printf("📝 Failing video job %s: %s", jobID, errorMessage)

	_, _, err := c.supabase.From("car_video_jobs").
		Update(map[string]interface{}{
			"job_status":    model.StatusFailed,
			"error_message": errorMessage,
			"updated_at":    "now()",
		}, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to mark video job failed: %w", err)
	}
	return nil
}
