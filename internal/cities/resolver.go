package cities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/homemetric/valuation-cli/internal/model"
	"github.com/homemetric/valuation-cli/internal/resilience"
	"github.com/homemetric/valuation-cli/pkg/perplexity"
)

const citySystemPrompt = "You are a real-estate market analyst. Provide accurate city statistics for Indian cities in valid JSON only, with no surrounding prose."

const cityPromptTemplate = `Provide current statistics for %s, India as JSON:
{
  "crime_index": <number 0-10, 10 is highest crime>,
  "safety_score": <number 0-10, 10 is safest>,
  "price_multiplier": <residential price level relative to the national average, 1.0 is average>
}`

// Resolver turns a city name into a CityProfile: known cities come from
// the table, unknown ones are enriched through the Perplexity API and
// cached for the process lifetime. A resolver without a client answers
// unknown cities with the neutral profile.
type Resolver struct {
	table   *Table
	client  perplexity.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig

	mu       sync.Mutex
	cache    map[string]model.CityProfile
	onEnrich func()
}

// NewResolver builds a resolver over a table and an optional enrichment
// client. queriesPerMinute bounds the enrichment call rate; zero or
// negative disables the limit.
func NewResolver(table *Table, client perplexity.Client, queriesPerMinute float64) *Resolver {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if queriesPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(queriesPerMinute/60), 1)
	}

	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = func(err error) bool {
		var apiErr *perplexity.APIError
		if errors.As(err, &apiErr) {
			return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
		}
		return resilience.IsTransient(err)
	}
	retry.OnRetry = resilience.RetryLogger("perplexity", "city_enrichment")

	return &Resolver{
		table:   table,
		client:  client,
		limiter: limiter,
		retry:   retry,
		cache:   make(map[string]model.CityProfile),
	}
}

// Resolve returns the best available profile for a city. It never
// fails: enrichment errors degrade to the neutral profile.
func (r *Resolver) Resolve(ctx context.Context, city string) model.CityProfile {
	name := Canonical(city)
	if name == "" {
		return model.NeutralCityProfile("")
	}

	if profile, ok := r.table.Lookup(name); ok {
		return profile
	}

	r.mu.Lock()
	cached, ok := r.cache[name]
	r.mu.Unlock()
	if ok {
		return cached
	}

	if r.client == nil {
		return model.NeutralCityProfile(name)
	}

	profile, err := r.enrich(ctx, name)
	if err != nil {
		zap.L().Warn("city enrichment failed, using neutral profile",
			zap.String("city", name),
			zap.Error(err))
		return model.NeutralCityProfile(name)
	}

	r.mu.Lock()
	r.cache[name] = profile
	notify := r.onEnrich
	r.mu.Unlock()
	if notify != nil {
		notify()
	}
	return profile
}

// OnEnrich registers a callback invoked after each successful
// enrichment, typically a metrics counter. Safe to call concurrently
// with Resolve.
func (r *Resolver) OnEnrich(fn func()) {
	r.mu.Lock()
	r.onEnrich = fn
	r.mu.Unlock()
}

// Known lists the profiles in the backing table, sorted by city name.
func (r *Resolver) Known() []model.CityProfile { return r.table.List() }

func (r *Resolver) enrich(ctx context.Context, name string) (model.CityProfile, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return model.CityProfile{}, eris.Wrap(err, "cities: rate limit wait")
	}

	resp, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		return r.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
			Messages: []perplexity.Message{
				{Role: "system", Content: citySystemPrompt},
				{Role: "user", Content: fmt.Sprintf(cityPromptTemplate, name)},
			},
		})
	})
	if err != nil {
		return model.CityProfile{}, err
	}
	if len(resp.Choices) == 0 {
		return model.CityProfile{}, eris.New("cities: empty enrichment response")
	}

	return parseProfile(name, resp.Choices[0].Message.Content)
}

// parseProfile extracts the JSON object from a model response, which may
// arrive wrapped in prose or a code fence.
func parseProfile(name, content string) (model.CityProfile, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return model.CityProfile{}, eris.Errorf("cities: no JSON object in enrichment response for %q", name)
	}

	var parsed struct {
		CrimeIndex      float64 `json:"crime_index"`
		SafetyScore     float64 `json:"safety_score"`
		PriceMultiplier float64 `json:"price_multiplier"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return model.CityProfile{}, eris.Wrapf(err, "cities: parse enrichment for %q", name)
	}

	profile := model.CityProfile{
		City:            name,
		CrimeIndex:      clamp(parsed.CrimeIndex, 0, 10),
		SafetyScore:     clamp(parsed.SafetyScore, 0, 10),
		PriceMultiplier: clamp(parsed.PriceMultiplier, 0.3, 3),
	}
	if parsed.SafetyScore == 0 {
		profile.SafetyScore = 10 - profile.CrimeIndex
	}
	if parsed.PriceMultiplier == 0 {
		profile.PriceMultiplier = 1.0
	}
	return profile, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
