package model

import "time"

// GenerationRecord - car_scene_generations 테이블 구조
// 합성 시도 1건당 1행. 리비전은 original_generation_id로 원본과 연결됨.
type GenerationRecord struct {
	GenerationID         string    `json:"generation_id"`
	UserID               string    `json:"user_id"`
	SubjectImagePath     string    `json:"subject_image_path"` // 차량(피사체) 이미지
	SceneImagePath       string    `json:"scene_image_path"`   // 배경 씬 이미지
	Lat                  float64   `json:"lat"`
	Lng                  float64   `json:"lng"`
	TimeOfDay            string    `json:"time_of_day"`
	CustomInstructions   *string   `json:"custom_instructions"`
	FinalImagePath       string    `json:"final_image_path"`
	PlaceDescription     string    `json:"place_description"`
	SceneDescription     string    `json:"scene_description"`
	IsRevision           bool      `json:"is_revision"`
	OriginalGenerationID *string   `json:"original_generation_id"`
	RevisionUsed         bool      `json:"revision_used"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CreditBalance - car_member_credits 테이블 구조
type CreditBalance struct {
	UserID           string    `json:"user_id"`
	AvailableCredits int       `json:"available_credits"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreditTransaction - car_credit_transactions 테이블 구조 (차감/환불 이력)
type CreditTransaction struct {
	UserID          string `json:"user_id"`
	TransactionType string `json:"transaction_type"` // DEBIT | REFUND
	Amount          int    `json:"amount"`
	BalanceAfter    int    `json:"balance_after"`
	Description     string `json:"description"`
	GenerationID    string `json:"generation_id,omitempty"`
}

// VideoJob - car_video_jobs 테이블 구조
type VideoJob struct {
	JobID        string    `json:"job_id"`
	UserID       string    `json:"user_id"`
	GenerationID string    `json:"generation_id"`
	MotionPrompt *string   `json:"motion_prompt"`
	JobStatus    string    `json:"job_status"`
	VideoPath    *string   `json:"video_path"`
	ErrorMessage *string   `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TimeOfDay 값들
const (
	TimeSunrise   = "sunrise"
	TimeAfternoon = "afternoon"
	TimeDusk      = "dusk"
	TimeNight     = "night"
)

// ValidTimeOfDay - timeOfDay enum 체크
func ValidTimeOfDay(value string) bool {
	switch value {
	case TimeSunrise, TimeAfternoon, TimeDusk, TimeNight:
		return true
	}
	return false
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// 크레딧 트랜잭션 타입
const (
	TxDebit  = "DEBIT"
	TxRefund = "REFUND"
)
