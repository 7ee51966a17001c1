package generation

import (
	"context"
	"log"

	"carscene-server/modules/common/apperr"
	"carscene-server/modules/common/model"
	"carscene-server/modules/progress"
	"github.com/google/uuid"
)

// 사가 진행 단계
const (
	StageCreditsReserved  = "credits_reserved"
	StagePlaceResolved    = "place_resolved"
	StageSceneAnalyzed    = "scene_analyzed"
	StageImageSynthesized = "image_synthesized"
	StagePersisted        = "persisted"
	StageCompleted        = "completed"
	StageCompensating     = "compensating"
	StageFailed           = "failed"
)

// Ledger - 크레딧 차감/환불. 성공 시 새 잔액 반환.
type Ledger interface {
	Debit(ctx context.Context, userID string, amount int, generationID string, description string) (int, error)
	Credit(ctx context.Context, userID string, amount int, generationID string, description string) (int, error)
}

// RecordStore - 생성 기록 저장소
type RecordStore interface {
	SaveGeneration(ctx context.Context, record *model.GenerationRecord) error
	GetGeneration(ctx context.Context, generationID string) (*model.GenerationRecord, error)
	MarkRevisionUsed(ctx context.Context, generationID string) error
	RevertRevisionUsed(ctx context.Context, generationID string) error
}

// PlaceResolver - 좌표 → 장소 설명 (실패하지 않음)
type PlaceResolver interface {
	Resolve(ctx context.Context, lat, lng float64) string
}

// SceneAnalyzer - 이미지 설명 생성
type SceneAnalyzer interface {
	DescribeSubject(ctx context.Context, imageURL string) string
	DescribeScene(ctx context.Context, imageURL string, placeDescription string) (string, error)
}

// ImageSynthesizer - 합성 실행, 결과 URL 반환
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, subjectURL, sceneURL, prompt string) (string, error)
}

// ArtifactStore - 결과 이미지 영구 저장
type ArtifactStore interface {
	PublicURL(filePath string) string
	StoreFinalImage(ctx context.Context, srcURL string, userID string) (string, error)
}

// ProgressPublisher - 진행 상황 알림
type ProgressPublisher interface {
	Publish(userID string, event progress.Event)
}

// Coordinator - 합성 사가 전체를 조율함
// 크레딧 차감 이후 어느 단계에서 실패하든 보상(환불)을 수행함.
type Coordinator struct {
	ledger      Ledger
	records     RecordStore
	place       PlaceResolver
	analyzer    SceneAnalyzer
	synthesizer ImageSynthesizer
	artifacts   ArtifactStore
	progress    ProgressPublisher
	creditPrice int
}

// NewCoordinator - Coordinator 생성
func NewCoordinator(
	ledger Ledger,
	records RecordStore,
	place PlaceResolver,
	analyzer SceneAnalyzer,
	synthesizer ImageSynthesizer,
	artifacts ArtifactStore,
	progressHub ProgressPublisher,
	creditPrice int,
) *Coordinator {
	return &Coordinator{
		ledger:      ledger,
		records:     records,
		place:       place,
		analyzer:    analyzer,
		synthesizer: synthesizer,
		artifacts:   artifacts,
		progress:    progressHub,
		creditPrice: creditPrice,
	}
}

// Execute - 신규 합성 사가 실행
func (c *Coordinator) Execute(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	return c.run(ctx, req, false, "", nil)
}

// ExecuteRevision - 리비전 사가 실행
// 리비전 플래그를 먼저 올린 뒤(임시 커밋) 사가를 실행함.
// 실패 시 보상은 플래그 원복 → 환불 순서로 진행됨.
func (c *Coordinator) ExecuteRevision(ctx context.Context, req *RevisionRequest) (*GenerateResponse, error) {
	if err := ValidateRequest(&req.GenerateRequest); err != nil {
		return nil, err
	}
	if req.OriginalGenerationID == "" {
		return nil, apperr.New(apperr.ErrValidation, "originalGenerationId is required")
	}

	original, err := c.records.GetGeneration(ctx, req.OriginalGenerationID)
	if err != nil {
		return nil, err
	}

	if err := ValidateRevision(req, original); err != nil {
		return nil, err
	}

	// 임시 커밋: 차감과 프로바이더 호출 전에 플래그를 올림
	// 조건부 업데이트라 같은 원본에 대한 동시 리비전 중 하나만 통과함
	if err := c.records.MarkRevisionUsed(ctx, req.OriginalGenerationID); err != nil {
		return nil, err
	}

	revertFlag := func(compCtx context.Context) error {
		return c.records.RevertRevisionUsed(compCtx, req.OriginalGenerationID)
	}

	return c.run(ctx, &req.GenerateRequest, true, req.OriginalGenerationID, revertFlag)
}

// run - 사가 본체. preCompensate는 환불보다 먼저 실행되는 보상 단계.
func (c *Coordinator) run(
	ctx context.Context,
	req *GenerateRequest,
	isRevision bool,
	originalID string,
	preCompensate func(ctx context.Context) error,
) (*GenerateResponse, error) {
	generationID := uuid.New().String()

	log.Printf("🎬 Starting generation saga: %s (user: %s, revision: %v)",
		generationID, req.UserID, isRevision)

	// 1. 크레딧 차감 - 실패하면 보상할 것이 없음 (리비전 플래그 제외)
	description := "Scene composite generation"
	if isRevision {
		description = "Scene composite revision"
	}
	if _, err := c.ledger.Debit(ctx, req.UserID, c.creditPrice, generationID, description); err != nil {
		if preCompensate != nil {
			if compErr := preCompensate(ctx); compErr != nil {
				log.Printf("🚨 COMPENSATION FAILED: revert revision flag for %s: %v", originalID, compErr)
			}
		}
		return nil, err
	}
	c.publish(req.UserID, generationID, StageCreditsReserved, "")

	// 이 시점부터 실패는 전부 보상(환불) 대상
	compensate := func(cause error) {
		log.Printf("↩️  Compensating saga %s: %v", generationID, cause)
		c.publish(req.UserID, generationID, StageCompensating, cause.Error())

		if preCompensate != nil {
			if err := preCompensate(ctx); err != nil {
				log.Printf("🚨 COMPENSATION FAILED: revert revision flag for %s: %v", originalID, err)
			}
		}
		if _, err := c.ledger.Credit(ctx, req.UserID, c.creditPrice, generationID, "Refund: "+description); err != nil {
			log.Printf("🚨 COMPENSATION FAILED: refund %d credits to user %s: %v",
				c.creditPrice, req.UserID, err)
		}
		c.publish(req.UserID, generationID, StageFailed, cause.Error())
	}

	// 2. 장소 설명 - 실패하지 않음 (내부적으로 대체 문구 사용)
	placeDescription := c.place.Resolve(ctx, req.Lat, req.Lng)
	c.publish(req.UserID, generationID, StagePlaceResolved, placeDescription)

	subjectURL := c.artifacts.PublicURL(req.SubjectImagePath)
	sceneURL := c.artifacts.PublicURL(req.SceneImagePath)

	// 3. 씬 분석 - 실패 시 보상
	sceneDescription, err := c.analyzer.DescribeScene(ctx, sceneURL, placeDescription)
	if err != nil {
		compensate(err)
		return nil, err
	}

	// 피사체 설명은 실패해도 기본값으로 대체됨
	subjectDescription := c.analyzer.DescribeSubject(ctx, subjectURL)
	c.publish(req.UserID, generationID, StageSceneAnalyzed, sceneDescription)

	// 4. 합성 - 실패 시 보상
	prompt := BuildCompositePrompt(subjectDescription, sceneDescription, placeDescription,
		req.TimeOfDay, req.CustomInstructions)

	resultURL, err := c.synthesizer.Synthesize(ctx, subjectURL, sceneURL, prompt)
	if err != nil {
		compensate(err)
		return nil, err
	}
	c.publish(req.UserID, generationID, StageImageSynthesized, "")

	// 5. 결과 영구 저장 - 실패 시 보상
	finalImagePath, err := c.artifacts.StoreFinalImage(ctx, resultURL, req.UserID)
	if err != nil {
		compensate(err)
		return nil, err
	}

	// 6. 기록 저장 - 실패 시 보상
	record := &model.GenerationRecord{
		GenerationID:       generationID,
		UserID:             req.UserID,
		SubjectImagePath:   req.SubjectImagePath,
		SceneImagePath:     req.SceneImagePath,
		Lat:                req.Lat,
		Lng:                req.Lng,
		TimeOfDay:          req.TimeOfDay,
		CustomInstructions: req.CustomInstructions,
		FinalImagePath:     finalImagePath,
		PlaceDescription:   placeDescription,
		SceneDescription:   sceneDescription,
		IsRevision:         isRevision,
		RevisionUsed:       false,
	}
	if isRevision {
		record.OriginalGenerationID = &originalID
	}

	if err := c.records.SaveGeneration(ctx, record); err != nil {
		compensate(err)
		return nil, err
	}
	c.publish(req.UserID, generationID, StagePersisted, "")

	log.Printf("✅ Generation saga completed: %s", generationID)
	c.publish(req.UserID, generationID, StageCompleted, finalImagePath)

	response := &GenerateResponse{
		GenerationID:     generationID,
		FinalImagePath:   finalImagePath,
		FinalImageURL:    c.artifacts.PublicURL(finalImagePath),
		PlaceDescription: placeDescription,
		SceneDescription: sceneDescription,
		IsRevision:       isRevision,
	}
	if isRevision {
		response.OriginalGenerationID = &originalID
	}
	return response, nil
}

func (c *Coordinator) publish(userID, generationID, stage, message string) {
	if c.progress == nil {
		return
	}
	c.progress.Publish(userID, progress.Event{
		Type:         "generation_progress",
		GenerationID: generationID,
		Stage:        stage,
		Message:      message,
	})
}
