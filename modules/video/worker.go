package video

import (
	"context"
	"log"
	"time"

	"carscene-server/modules/common/model"
	"carscene-server/modules/common/prediction"
	"carscene-server/modules/generation"
	"carscene-server/modules/progress"
	"github.com/redis/go-redis/v9"
)

// ClipStore - 결과 클립 영구 저장
type ClipStore interface {
	PublicURL(filePath string) string
	StoreVideoClip(ctx context.Context, srcURL string, userID string) (string, error)
}

// Worker - Redis 큐에서 비디오 작업을 꺼내 처리함
type Worker struct {
	rdb          *redis.Client
	jobs         JobStore
	ledger       Ledger
	predictor    generation.Predictor
	clips        ClipStore
	progress     *progress.Hub
	videoVersion string
	policy       prediction.Policy
	creditPrice  int
}

// NewWorker - Worker 생성
func NewWorker(
	rdb *redis.Client,
	jobs JobStore,
	ledger Ledger,
	predictor generation.Predictor,
	clips ClipStore,
	progressHub *progress.Hub,
	videoVersion string,
	policy prediction.Policy,
	creditPrice int,
) *Worker {
	return &Worker{
		rdb:          rdb,
		jobs:         jobs,
		ledger:       ledger,
		predictor:    predictor,
		clips:        clips,
		progress:     progressHub,
		videoVersion: videoVersion,
		policy:       policy,
		creditPrice:  creditPrice,
	}
}

// Run - 큐 감시 루프 (블로킹)
func (w *Worker) Run() {
	log.Println("🚀 Video worker started")
	log.Printf("👀 Watching queue: %s", queueKey)

	ctx := context.Background()

	// 무한 루프로 Queue 감시
	for {
		// Job 받기 (BRPOP - Blocking Right Pop)
		result, err := w.rdb.BRPop(ctx, 0, queueKey).Result()
		if err != nil {
			log.Printf("❌ Redis BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// result[0]은 큐 이름, result[1]이 실제 job_id
		jobID := result[1]
		log.Printf("📥 Received video job: %s", jobID)

		w.ProcessJob(ctx, jobID)
	}
}

// ProcessJob - 작업 1건 처리. 실패 시 크레딧 환불 + 실패 기록.
func (w *Worker) ProcessJob(ctx context.Context, jobID string) {
	job, err := w.jobs.GetVideoJob(ctx, jobID)
	if err != nil {
		log.Printf("❌ Failed to fetch video job %s: %v", jobID, err)
		return
	}

	if job.JobStatus != model.StatusPending {
		log.Printf("⚠️  Skipping job %s with status: %s", jobID, job.JobStatus)
		return
	}

	if err := w.jobs.UpdateVideoJobStatus(ctx, jobID, model.StatusProcessing); err != nil {
		log.Printf("❌ Failed to mark job %s processing: %v", jobID, err)
		return
	}
	w.publish(job, model.StatusProcessing, "")

	videoPath, err := w.generate(ctx, job)
	if err != nil {
		log.Printf("❌ Video job %s failed: %v", jobID, err)
		w.fail(ctx, job, err)
		return
	}

	if err := w.jobs.CompleteVideoJob(ctx, jobID, videoPath); err != nil {
		log.Printf("❌ Failed to complete job %s: %v", jobID, err)
		w.fail(ctx, job, err)
		return
	}

	log.Printf("✅ Video job completed: %s → %s", jobID, videoPath)
	w.publish(job, model.StatusCompleted, videoPath)
}

func (w *Worker) generate(ctx context.Context, job *model.VideoJob) (string, error) {
	record, err := w.jobs.GetGeneration(ctx, job.GenerationID)
	if err != nil {
		return "", err
	}

	motionPrompt := "Slow cinematic camera push-in, subtle ambient motion."
	if job.MotionPrompt != nil && *job.MotionPrompt != "" {
		motionPrompt = *job.MotionPrompt
	}

	handle, err := w.predictor.Submit(ctx, prediction.Spec{
		Version: w.videoVersion,
		Input: map[string]interface{}{
			"image":  w.clips.PublicURL(record.FinalImagePath),
			"prompt": motionPrompt,
		},
	})
	if err != nil {
		return "", err
	}

	output, err := w.predictor.AwaitCompletion(ctx, handle, w.policy)
	if err != nil {
		return "", err
	}

	resultURL, err := output.FirstString()
	if err != nil {
		return "", err
	}

	return w.clips.StoreVideoClip(ctx, resultURL, job.UserID)
}

// fail - 실패 기록 + 크레딧 환불 (보상)
func (w *Worker) fail(ctx context.Context, job *model.VideoJob, cause error) {
	if err := w.jobs.FailVideoJob(ctx, job.JobID, cause.Error()); err != nil {
		log.Printf("⚠️  Failed to record job failure %s: %v", job.JobID, err)
	}
	if _, err := w.ledger.Credit(ctx, job.UserID, w.creditPrice, job.JobID, "Refund: Scene clip generation"); err != nil {
		log.Printf("🚨 COMPENSATION FAILED: refund %d credits to user %s: %v",
			w.creditPrice, job.UserID, err)
	}
	w.publish(job, model.StatusFailed, cause.Error())
}

func (w *Worker) publish(job *model.VideoJob, stage, message string) {
	if w.progress == nil {
		return
	}
	w.progress.Publish(job.UserID, progress.Event{
		Type:         "video_progress",
		JobID:        job.JobID,
		GenerationID: job.GenerationID,
		Stage:        stage,
		Message:      message,
	})
}
