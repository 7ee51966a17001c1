package generation

import (
	"fmt"
	"strings"

	"carscene-server/modules/common/model"
)

// BuildCompositePrompt - 합성 모델용 프롬프트 생성
// 피사체/씬 설명과 장소, 시간대를 하나의 지시문으로 조합함.
func BuildCompositePrompt(subjectDesc, sceneDesc, placeDesc, timeOfDay string, customInstructions *string) string {
	var promptBuilder strings.Builder

	// 최우선 규칙 - 통합된 씬
	promptBuilder.WriteString("=== CREATE ONE UNIFIED SCENE ===\n\n")
	promptBuilder.WriteString("[THE GOAL]\n")
	promptBuilder.WriteString(fmt.Sprintf("Place %s INTO the environment. It must look like it BELONGS there.\n", subjectDesc))
	promptBuilder.WriteString("The environment's light must fall on the vehicle's body and glass.\n")
	promptBuilder.WriteString("The vehicle must cast shadows that match the scene's light direction.\n\n")

	// 피사체 규칙
	promptBuilder.WriteString("[SUBJECT - KEEP IDENTITY]\n")
	promptBuilder.WriteString("Same vehicle: identical body lines, wheels, badges, and paint color.\n")
	promptBuilder.WriteString("Discard the subject photo's original background and ground entirely.\n")
	promptBuilder.WriteString("BUT the paint and glass must REFLECT the new environment's lighting.\n\n")

	// 씬 규칙
	promptBuilder.WriteString("[SCENE]\n")
	promptBuilder.WriteString(fmt.Sprintf("Setting: %s, at %s.\n", sceneDesc, placeDesc))
	promptBuilder.WriteString("Ignore any people, text overlays, or watermarks in the scene reference.\n\n")

	// 시간대별 조명
	promptBuilder.WriteString("[LIGHTING]\n")
	switch timeOfDay {
	case model.TimeSunrise:
		promptBuilder.WriteString("Early sunrise: soft golden light, low sun angle, long cool shadows, light haze.\n\n")
	case model.TimeAfternoon:
		promptBuilder.WriteString("Clear afternoon: bright neutral daylight, high sun, short crisp shadows.\n\n")
	case model.TimeDusk:
		promptBuilder.WriteString("Dusk: warm orange-pink sky, low sun behind the horizon, soft long shadows.\n\n")
	case model.TimeNight:
		promptBuilder.WriteString("Night: dark sky, scene lit by ambient and artificial light, visible reflections on the paint.\n\n")
	default:
		promptBuilder.WriteString("Natural daylight matching the scene reference.\n\n")
	}

	// 출력 요구사항
	promptBuilder.WriteString("[OUTPUT]\n")
	promptBuilder.WriteString("ONE photorealistic photograph. Image fills the entire frame.\n\n")

	// 금지사항
	promptBuilder.WriteString("[FORBIDDEN - INSTANT REJECTION]:\n")
	promptBuilder.WriteString("- ANY change to the vehicle's shape, color, or badges\n")
	promptBuilder.WriteString("- Split screens, collages, borders, multiple panels\n")
	promptBuilder.WriteString("- Text, logos, watermarks, UI overlays\n")
	promptBuilder.WriteString("- Cartoon, illustration, 3D render style\n")
	promptBuilder.WriteString("- Floating vehicle, wrong shadow direction, physics violations\n")

	// 사용자 지시사항
	if customInstructions != nil && strings.TrimSpace(*customInstructions) != "" {
		promptBuilder.WriteString("\n[USER REQUEST]\n")
		promptBuilder.WriteString(strings.TrimSpace(*customInstructions))
		promptBuilder.WriteString("\n")
	}

	return promptBuilder.String()
}
