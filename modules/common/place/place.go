package place

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carscene-server/modules/common/config"
	"carscene-server/modules/common/fallback"
)

const defaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Resolver - 좌표를 사람이 읽을 수 있는 장소 설명으로 변환
// 지오코딩이 어떤 이유로 실패하든 사가를 멈추지 않고 대체 문구를 반환함.
type Resolver struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewResolver - Resolver 생성
func NewResolver() *Resolver {
	cfg := config.GetConfig()
	return &Resolver{
		apiKey:     cfg.GoogleMapsAPIKey,
		baseURL:    defaultGeocodeURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewResolverWithClient - 테스트용 생성자
func NewResolverWithClient(apiKey, baseURL string, httpClient *http.Client) *Resolver {
	return &Resolver{apiKey: apiKey, baseURL: baseURL, httpClient: httpClient}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// Resolve - 역지오코딩으로 장소 설명 생성. 절대 실패하지 않음.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) string {
	if r.apiKey == "" {
		log.Printf("⚠️  Google Maps API key not set, using fallback place")
		return fallback.PlaceUnknown
	}

	reqURL := fmt.Sprintf("%s?latlng=%s&key=%s",
		r.baseURL,
		url.QueryEscape(fmt.Sprintf("%f,%f", lat, lng)),
		url.QueryEscape(r.apiKey))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		log.Printf("⚠️  Failed to create geocode request: %v", err)
		return fallback.PlaceUnknown
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("⚠️  Geocode request failed: %v", err)
		return fallback.PlaceUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️  Geocode returned status %d", resp.StatusCode)
		return fallback.PlaceUnknown
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("⚠️  Failed to read geocode response: %v", err)
		return fallback.PlaceUnknown
	}

	var geocode geocodeResponse
	if err := json.Unmarshal(body, &geocode); err != nil {
		log.Printf("⚠️  Failed to parse geocode response: %v", err)
		return fallback.PlaceUnknown
	}

	if geocode.Status != "OK" || len(geocode.Results) == 0 {
		log.Printf("⚠️  Geocode status: %s (results: %d)", geocode.Status, len(geocode.Results))
		return fallback.PlaceUnknown
	}

	description := fallback.SafePlace(describeFromComponents(&geocode))
	if description == fallback.PlaceUnknown {
		return description
	}

	log.Printf("📍 Resolved place: (%f, %f) → %s", lat, lng, description)
	return description
}

// describeFromComponents - 주소 컴포넌트에서 설명 조합
// 우선순위: 도시+광역 → 도시 → 구+광역 → 구 → 광역 → 동네 → 도로 → 국가
func describeFromComponents(geocode *geocodeResponse) string {
	components := map[string]string{}
	for _, result := range geocode.Results {
		for _, comp := range result.AddressComponents {
			for _, t := range comp.Types {
				if _, exists := components[t]; !exists {
					components[t] = comp.LongName
				}
			}
		}
	}

	locality := components["locality"]
	sublocality := components["sublocality"]
	if sublocality == "" {
		sublocality = components["sublocality_level_1"]
	}
	region := components["administrative_area_level_1"]
	neighborhood := components["neighborhood"]
	street := components["route"]
	country := components["country"]

	var base string
	switch {
	case locality != "" && region != "" && locality != region:
		base = locality + ", " + region
	case locality != "":
		base = locality
	case sublocality != "" && region != "":
		base = sublocality + ", " + region
	case sublocality != "":
		base = sublocality
	case region != "":
		base = region
	case neighborhood != "":
		base = neighborhood
	case street != "":
		base = street
	case country != "":
		return country
	default:
		return ""
	}

	// 국가가 이미 포함되어 있지 않으면 뒤에 붙임
	if country != "" && !strings.Contains(base, country) {
		base = base + ", " + country
	}

	return base
}
