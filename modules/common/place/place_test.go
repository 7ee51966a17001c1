package place

import (
	"context"
	"net/http"
	"testing"

	"carscene-server/modules/common/fallback"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
)

const testGeocodeURL = "https://maps.test/geocode/json"

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewResolverWithClient("test-key", testGeocodeURL, httpClient)
}

func geocodeBody(components ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"status": "OK",
		"results": []map[string]interface{}{
			{"address_components": components},
		},
	}
}

func component(name string, types ...string) map[string]interface{} {
	return map[string]interface{}{"long_name": name, "types": types}
}

func TestResolveCityAndRegion(t *testing.T) {
	resolver := newTestResolver(t)

	httpmock.RegisterResponder("GET", testGeocodeURL,
		httpmock.NewJsonResponderOrPanic(200, geocodeBody(
			component("Lisbon", "locality", "political"),
			component("Lisbon District", "administrative_area_level_1", "political"),
			component("Portugal", "country", "political"),
		)))

	got := resolver.Resolve(context.Background(), 38.7223, -9.1393)
	assert.Equal(t, "Lisbon, Lisbon District, Portugal", got)
}

func TestResolveCountryNotRepeated(t *testing.T) {
	resolver := newTestResolver(t)

	// city-state: locality equals country, no duplicate suffix
	httpmock.RegisterResponder("GET", testGeocodeURL,
		httpmock.NewJsonResponderOrPanic(200, geocodeBody(
			component("Singapore", "locality", "political"),
			component("Singapore", "country", "political"),
		)))

	got := resolver.Resolve(context.Background(), 1.3521, 103.8198)
	assert.Equal(t, "Singapore", got)
}

func TestResolveSublocalityFallback(t *testing.T) {
	resolver := newTestResolver(t)

	httpmock.RegisterResponder("GET", testGeocodeURL,
		httpmock.NewJsonResponderOrPanic(200, geocodeBody(
			component("Gangnam-gu", "sublocality", "sublocality_level_1", "political"),
			component("Seoul", "administrative_area_level_1", "political"),
			component("South Korea", "country", "political"),
		)))

	got := resolver.Resolve(context.Background(), 37.4979, 127.0276)
	assert.Equal(t, "Gangnam-gu, Seoul, South Korea", got)
}

func TestResolveRegionOnly(t *testing.T) {
	resolver := newTestResolver(t)

	httpmock.RegisterResponder("GET", testGeocodeURL,
		httpmock.NewJsonResponderOrPanic(200, geocodeBody(
			component("Nevada", "administrative_area_level_1", "political"),
			component("United States", "country", "political"),
		)))

	got := resolver.Resolve(context.Background(), 38.8, -117.0)
	assert.Equal(t, "Nevada, United States", got)
}

func TestResolveCountryOnly(t *testing.T) {
	resolver := newTestResolver(t)

	httpmock.RegisterResponder("GET", testGeocodeURL,
		httpmock.NewJsonResponderOrPanic(200, geocodeBody(
			component("Iceland", "country", "political"),
		)))

	got := resolver.Resolve(context.Background(), 64.9, -19.0)
	assert.Equal(t, "Iceland", got)
}

func TestResolveFallbacks(t *testing.T) {
	t.Run("zero results", func(t *testing.T) {
		resolver := newTestResolver(t)
		httpmock.RegisterResponder("GET", testGeocodeURL,
			httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
				"status":  "ZERO_RESULTS",
				"results": []interface{}{},
			}))

		got := resolver.Resolve(context.Background(), 0, 0)
		assert.Equal(t, fallback.PlaceUnknown, got)
	})

	t.Run("http error", func(t *testing.T) {
		resolver := newTestResolver(t)
		httpmock.RegisterResponder("GET", testGeocodeURL,
			httpmock.NewStringResponder(500, "boom"))

		got := resolver.Resolve(context.Background(), 0, 0)
		assert.Equal(t, fallback.PlaceUnknown, got)
	})

	t.Run("malformed body", func(t *testing.T) {
		resolver := newTestResolver(t)
		httpmock.RegisterResponder("GET", testGeocodeURL,
			httpmock.NewStringResponder(200, "not json"))

		got := resolver.Resolve(context.Background(), 0, 0)
		assert.Equal(t, fallback.PlaceUnknown, got)
	})

	t.Run("missing api key", func(t *testing.T) {
		resolver := NewResolverWithClient("", testGeocodeURL, &http.Client{})
		got := resolver.Resolve(context.Background(), 0, 0)
		assert.Equal(t, fallback.PlaceUnknown, got)
	})
}
