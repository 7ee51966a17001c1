package fallback

import (
	"strings"
)

// 분석/지오코딩 실패 시 사가를 멈추지 않기 위한 대체 값들.
const (
	// PlaceUnknown - 지오코딩 실패 시 장소 설명
	PlaceUnknown = "this location"

	// SubjectGeneric - 피사체 캡셔닝 실패 시 기본 설명
	SubjectGeneric = "a car"
)

// SafeString returns a trimmed string or the provided fallback.
func SafeString(value string, fb string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return fb
}

// SafePlace - 빈 장소 설명을 PlaceUnknown으로 치환
func SafePlace(value string) string {
	return SafeString(value, PlaceUnknown)
}

// SafeSubject - 빈 피사체 설명을 SubjectGeneric으로 치환
func SafeSubject(value string) string {
	return SafeString(value, SubjectGeneric)
}
