package video

import (
	"context"
	"log"
	"time"

	"carscene-server/modules/common/apperr"
	"carscene-server/modules/common/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const queueKey = "video:jobs:queue"

// Ledger - 크레딧 차감/환불. 성공 시 새 잔액 반환.
type Ledger interface {
	Debit(ctx context.Context, userID string, amount int, generationID string, description string) (int, error)
	Credit(ctx context.Context, userID string, amount int, generationID string, description string) (int, error)
}

// JobStore - 비디오 작업과 원본 생성 기록 조회/갱신
type JobStore interface {
	CreateVideoJob(ctx context.Context, job *model.VideoJob) error
	GetVideoJob(ctx context.Context, jobID string) (*model.VideoJob, error)
	UpdateVideoJobStatus(ctx context.Context, jobID string, status string) error
	CompleteVideoJob(ctx context.Context, jobID string, videoPath string) error
	FailVideoJob(ctx context.Context, jobID string, errorMessage string) error
	GetGeneration(ctx context.Context, generationID string) (*model.GenerationRecord, error)
}

// Service - 비디오 작업 접수 (크레딧 차감 후 Redis 큐에 적재)
type Service struct {
	ledger      Ledger
	jobs        JobStore
	rdb         *redis.Client
	creditPrice int
}

// NewService - Service 생성
func NewService(ledger Ledger, jobs JobStore, rdb *redis.Client, creditPrice int) *Service {
	return &Service{
		ledger:      ledger,
		jobs:        jobs,
		rdb:         rdb,
		creditPrice: creditPrice,
	}
}

// SubmitJob - 작업 생성 + 큐 적재. 적재 실패 시 크레딧 환불.
func (s *Service) SubmitJob(ctx context.Context, req *VideoRequest) (*VideoResponse, error) {
	if req.UserID == "" {
		return nil, apperr.New(apperr.ErrValidation, "userId is required")
	}
	if req.GenerationID == "" {
		return nil, apperr.New(apperr.ErrValidation, "generationId is required")
	}

	// 원본 생성 확인 (소유자 불일치는 존재를 노출하지 않음)
	generation, err := s.jobs.GetGeneration(ctx, req.GenerationID)
	if err != nil {
		return nil, err
	}
	if generation.UserID != req.UserID {
		return nil, apperr.Newf(apperr.ErrNotFound, "generation not found: %s", req.GenerationID)
	}

	jobID := uuid.New().String()

	if _, err := s.ledger.Debit(ctx, req.UserID, s.creditPrice, jobID, "Scene clip generation"); err != nil {
		return nil, err
	}

	job := &model.VideoJob{
		JobID:        jobID,
		UserID:       req.UserID,
		GenerationID: req.GenerationID,
		MotionPrompt: req.MotionPrompt,
		JobStatus:    model.StatusPending,
	}

	if err := s.jobs.CreateVideoJob(ctx, job); err != nil {
		s.refund(ctx, req.UserID, jobID)
		return nil, err
	}

	// Redis LPUSH
	enqueueCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.rdb.LPush(enqueueCtx, queueKey, jobID).Result(); err != nil {
		log.Printf("❌ Redis LPUSH failed: %v", err)
		s.refund(ctx, req.UserID, jobID)
		if failErr := s.jobs.FailVideoJob(ctx, jobID, "failed to enqueue job"); failErr != nil {
			log.Printf("⚠️  Failed to mark job failed: %v", failErr)
		}
		return nil, apperr.Wrap(apperr.ErrPersistence, "failed to enqueue video job", err)
	}

	log.Printf("📥 Video job enqueued: %s (generation: %s)", jobID, req.GenerationID)

	return &VideoResponse{JobID: jobID, Status: model.StatusPending}, nil
}

// GetJob - 작업 상태 조회
func (s *Service) GetJob(ctx context.Context, jobID string) (*model.VideoJob, error) {
	return s.jobs.GetVideoJob(ctx, jobID)
}

func (s *Service) refund(ctx context.Context, userID, jobID string) {
	if _, err := s.ledger.Credit(ctx, userID, s.creditPrice, jobID, "Refund: Scene clip generation"); err != nil {
		log.Printf("🚨 COMPENSATION FAILED: refund %d credits to user %s: %v", s.creditPrice, userID, err)
	}
}
