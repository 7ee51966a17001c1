package generation

import (
	"carscene-server/modules/common/apperr"
	"carscene-server/modules/common/model"
)

// ValidateRequest - 합성 요청 입력 검증
func ValidateRequest(req *GenerateRequest) error {
	if req.UserID == "" {
		return apperr.New(apperr.ErrValidation, "userId is required")
	}
	if req.SubjectImagePath == "" {
		return apperr.New(apperr.ErrValidation, "subjectImagePath is required")
	}
	if req.SceneImagePath == "" {
		return apperr.New(apperr.ErrValidation, "sceneImagePath is required")
	}
	if req.Lat < -90 || req.Lat > 90 {
		return apperr.Newf(apperr.ErrValidation, "lat out of range: %f", req.Lat)
	}
	if req.Lng < -180 || req.Lng > 180 {
		return apperr.Newf(apperr.ErrValidation, "lng out of range: %f", req.Lng)
	}
	if !model.ValidTimeOfDay(req.TimeOfDay) {
		return apperr.Newf(apperr.ErrValidation, "invalid timeOfDay: %s", req.TimeOfDay)
	}
	return nil
}

// ValidateRevision - 리비전 가능 여부 검증
// 순서대로 검사하고 첫 위반에서 바로 반환함:
// 원본 존재 → 소유자 일치 → 리비전 미사용 → 원본이 리비전 아님 → 피사체 동일
func ValidateRevision(req *RevisionRequest, original *model.GenerationRecord) error {
	if original == nil {
		return apperr.Newf(apperr.ErrNotFound, "generation not found: %s", req.OriginalGenerationID)
	}
	if original.UserID != req.UserID {
		// 다른 사용자의 생성 건은 존재 여부를 노출하지 않음
		return apperr.Newf(apperr.ErrNotFound, "generation not found: %s", req.OriginalGenerationID)
	}
	if original.RevisionUsed {
		return apperr.New(apperr.ErrConflict, "revision already used for this generation")
	}
	if original.IsRevision {
		return apperr.New(apperr.ErrValidation, "cannot revise a revision")
	}
	if original.SubjectImagePath != req.SubjectImagePath {
		return apperr.New(apperr.ErrValidation, "subject image must match the original generation")
	}
	return nil
}
