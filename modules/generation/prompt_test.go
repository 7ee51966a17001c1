package generation

import (
	"strings"
	"testing"

	"carscene-server/modules/common/model"
	"github.com/stretchr/testify/assert"
)

func TestBuildCompositePromptIncludesDescriptions(t *testing.T) {
	prompt := BuildCompositePrompt(
		"a red coupe", "a coastal road at golden hour", "Lisbon, Portugal",
		model.TimeDusk, nil)

	assert.Contains(t, prompt, "a red coupe")
	assert.Contains(t, prompt, "a coastal road at golden hour")
	assert.Contains(t, prompt, "Lisbon, Portugal")
	assert.Contains(t, prompt, "[FORBIDDEN - INSTANT REJECTION]")
	assert.Contains(t, prompt, "Discard the subject photo's original background")
	assert.NotContains(t, prompt, "[USER REQUEST]")
}

func TestBuildCompositePromptLighting(t *testing.T) {
	tests := []struct {
		timeOfDay string
		want      string
	}{
		{model.TimeSunrise, "soft golden light"},
		{model.TimeAfternoon, "bright neutral daylight"},
		{model.TimeDusk, "warm orange-pink sky"},
		{model.TimeNight, "artificial light"},
	}

	for _, tt := range tests {
		t.Run(tt.timeOfDay, func(t *testing.T) {
			prompt := BuildCompositePrompt("a car", "a scene", "somewhere", tt.timeOfDay, nil)
			assert.Contains(t, prompt, tt.want)
		})
	}
}

func TestBuildCompositePromptCustomInstructions(t *testing.T) {
	custom := "  shot from a low angle  "
	prompt := BuildCompositePrompt("a car", "a scene", "somewhere", model.TimeNight, &custom)

	assert.Contains(t, prompt, "[USER REQUEST]")
	assert.Contains(t, prompt, "shot from a low angle")
	// trimmed, not raw
	assert.False(t, strings.Contains(prompt, custom))

	empty := "   "
	prompt = BuildCompositePrompt("a car", "a scene", "somewhere", model.TimeNight, &empty)
	assert.NotContains(t, prompt, "[USER REQUEST]")
}
