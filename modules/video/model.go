package video

// VideoRequest - 완료된 합성 결과로 짧은 클립을 만드는 요청
type VideoRequest struct {
	UserID       string  `json:"userId"`
	GenerationID string  `json:"generationId"`
	MotionPrompt *string `json:"motionPrompt,omitempty"`
}

// VideoResponse - 작업 접수 응답
type VideoResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}
