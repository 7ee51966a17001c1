package generation

import (
	"context"
	"log"

	"carscene-server/modules/common/config"
	"carscene-server/modules/common/prediction"
)

// Synthesizer - 합성 모델에 작업을 제출하고 결과 URL을 받아옴
type Synthesizer struct {
	predictor    Predictor
	imageVersion string
	policy       prediction.Policy
}

// NewSynthesizer - Synthesizer 생성
func NewSynthesizer(predictor Predictor) *Synthesizer {
	cfg := config.GetConfig()
	return &Synthesizer{
		predictor:    predictor,
		imageVersion: cfg.ProviderImageVersion,
		policy:       prediction.ImagePolicy(),
	}
}

// NewSynthesizerWithPolicy - 테스트용 생성자
func NewSynthesizerWithPolicy(predictor Predictor, imageVersion string, policy prediction.Policy) *Synthesizer {
	return &Synthesizer{predictor: predictor, imageVersion: imageVersion, policy: policy}
}

// Synthesize - 피사체+씬 이미지와 프롬프트로 합성 작업 실행
// 반환값은 프로바이더가 준 결과 이미지 URL (영구 저장 전)
func (s *Synthesizer) Synthesize(ctx context.Context, subjectURL, sceneURL, prompt string) (string, error) {
	log.Printf("🎨 Submitting composite synthesis job")

	handle, err := s.predictor.Submit(ctx, prediction.Spec{
		Version: s.imageVersion,
		Input: map[string]interface{}{
			"subject_image": subjectURL,
			"scene_image":   sceneURL,
			"prompt":        prompt,
		},
	})
	if err != nil {
		return "", err
	}

	output, err := s.predictor.AwaitCompletion(ctx, handle, s.policy)
	if err != nil {
		return "", err
	}

	resultURL, err := output.FirstString()
	if err != nil {
		return "", err
	}

	log.Printf("✅ Composite synthesized: %s", resultURL)
	return resultURL, nil
}
