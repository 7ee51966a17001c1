package generation

// GenerateRequest - 씬 합성 요청
type GenerateRequest struct {
	UserID             string  `json:"userId"`
	SubjectImagePath   string  `json:"subjectImagePath"` // 차량 사진 (Storage 경로)
	SceneImagePath     string  `json:"sceneImagePath"`   // 배경 씬 사진 (Storage 경로)
	Lat                float64 `json:"lat"`
	Lng                float64 `json:"lng"`
	TimeOfDay          string  `json:"timeOfDay"`
	CustomInstructions *string `json:"customInstructions,omitempty"`
}

// RevisionRequest - 기존 합성에 대한 1회 재시도 요청
// 피사체 이미지는 원본과 동일해야 함. 씬/시간대/지시사항은 바뀔 수 있음.
type RevisionRequest struct {
	GenerateRequest
	OriginalGenerationID string `json:"originalGenerationId"`
}

// GenerateResponse - 합성 결과
type GenerateResponse struct {
	GenerationID         string  `json:"generationId"`
	FinalImagePath       string  `json:"finalImagePath"`
	FinalImageURL        string  `json:"finalImageUrl"`
	PlaceDescription     string  `json:"placeDescription"`
	SceneDescription     string  `json:"sceneDescription"`
	IsRevision           bool    `json:"isRevision"`
	OriginalGenerationID *string `json:"originalGenerationId,omitempty"`
}
