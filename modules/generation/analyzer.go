package generation

import (
	"context"
	"log"

	"carscene-server/modules/common/config"
	"carscene-server/modules/common/fallback"
	"carscene-server/modules/common/prediction"
)

// Predictor - submit/poll 프로바이더 추상화 (테스트에서 교체용)
type Predictor interface {
	Submit(ctx context.Context, spec prediction.Spec) (*prediction.JobHandle, error)
	AwaitCompletion(ctx context.Context, handle *prediction.JobHandle, policy prediction.Policy) (*prediction.Output, error)
}

// Analyzer - 캡셔닝 모델로 피사체/씬 이미지 설명 생성
type Analyzer struct {
	predictor      Predictor
	captionVersion string
	policy         prediction.Policy
}

// NewAnalyzer - Analyzer 생성
func NewAnalyzer(predictor Predictor) *Analyzer {
	cfg := config.GetConfig()
	return &Analyzer{
		predictor:      predictor,
		captionVersion: cfg.ProviderCaptionVersion,
		policy:         prediction.ImagePolicy(),
	}
}

// NewAnalyzerWithPolicy - 테스트용 생성자
func NewAnalyzerWithPolicy(predictor Predictor, captionVersion string, policy prediction.Policy) *Analyzer {
	return &Analyzer{predictor: predictor, captionVersion: captionVersion, policy: policy}
}

// DescribeSubject - 피사체(차량) 이미지 설명 생성
// 실패해도 사가를 멈추지 않고 기본 설명으로 대체함.
func (a *Analyzer) DescribeSubject(ctx context.Context, imageURL string) string {
	description, err := a.caption(ctx, imageURL,
		"Describe the vehicle in this photo in one sentence: make, body style, and color.")
	if err != nil {
		log.Printf("⚠️  Subject captioning failed, using fallback: %v", err)
		return fallback.SubjectGeneric
	}
	return fallback.SafeSubject(description)
}

// DescribeScene - 배경 씬 이미지 설명 생성 (장소 설명을 힌트로 사용)
// 씬 설명은 합성 품질에 직결되므로 실패를 그대로 전파함.
func (a *Analyzer) DescribeScene(ctx context.Context, imageURL string, placeDescription string) (string, error) {
	question := "Describe this outdoor scene in one sentence: setting, terrain, and dominant colors."
	if placeDescription != "" && placeDescription != fallback.PlaceUnknown {
		question = "This photo was taken near " + placeDescription + ". " + question
	}

	description, err := a.caption(ctx, imageURL, question)
	if err != nil {
		return "", err
	}
	return description, nil
}

func (a *Analyzer) caption(ctx context.Context, imageURL string, question string) (string, error) {
	handle, err := a.predictor.Submit(ctx, prediction.Spec{
		Version: a.captionVersion,
		Input: map[string]interface{}{
			"image":  imageURL,
			"prompt": question,
		},
	})
	if err != nil {
		return "", err
	}

	output, err := a.predictor.AwaitCompletion(ctx, handle, a.policy)
	if err != nil {
		return "", err
	}

	return output.FirstString()
}
