package predict

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/features"
	"github.com/dkwon/alphadesk/internal/models"
	"github.com/dkwon/alphadesk/internal/training"
	"github.com/dkwon/alphadesk/pkg/config"
	"github.com/dkwon/alphadesk/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error"})
}

type fixedProbClassifier struct{ prob float64 }

func (f fixedProbClassifier) Fit([][]float64, []int) error { return nil }
func (f fixedProbClassifier) Predict(x [][]float64) ([]int, error) {
	out := make([]int, len(x))
	for i := range out {
		if f.prob >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}
func (f fixedProbClassifier) PredictProba(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = f.prob
	}
	return out, nil
}

type fixedRegressor struct{ value float64 }

func (f fixedRegressor) Fit([][]float64, []float64) error { return nil }
func (f fixedRegressor) Predict(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = f.value
	}
	return out, nil
}

func stubPipeline(prob, magnitude float64) *training.Pipeline {
	dir := training.DirectionResult{Name: "stub_dir", Model: fixedProbClassifier{prob: prob}}
	mag := training.MagnitudeResult{Name: "stub_mag", Model: fixedRegressor{value: magnitude}, PriceNorm: 1}
	return &training.Pipeline{
		Ticker:     "TEST",
		Schema:     contracts.NewFeatureSchema([]string{"Close", "Signal"}),
		Direction:  &training.DirectionSelection{Best: &dir},
		Magnitude:  &training.MagnitudeSelection{Best: &mag},
		Confidence: contracts.ConfidenceMedium,
		TrainedAt:  time.Now(),
	}
}

func TestCombineConfidenceScaling(t *testing.T) {
	p := stubPipeline(0.85, 2.0)

	pred, err := Combine(p, []float64{100, 1})
	require.NoError(t, err)

	assert.Equal(t, contracts.DirectionUp, pred.Direction)
	assert.InDelta(t, 0.85, pred.DirectionConfidence, 1e-9)
	assert.InDelta(t, 2.0, pred.RawMagnitudePct, 1e-9)
	assert.InDelta(t, 2.0, pred.SignedMagnitudePct, 1e-9)
	assert.InDelta(t, 0.70, pred.ConfidenceScore, 1e-6)
	assert.InDelta(t, 1.4, pred.FinalPct, 1e-6)
	assert.False(t, pred.UsingDirectionEnsemble)
	assert.False(t, pred.UsingMagnitudeEnsemble)
	assert.Equal(t, contracts.ConfidenceMedium, pred.Confidence)
}

func TestCombineDownDirection(t *testing.T) {
	// Magnitude sign comes from the direction model, not the regressor
	p := stubPipeline(0.2, -3.0)

	pred, err := Combine(p, []float64{100, -1})
	require.NoError(t, err)

	assert.Equal(t, contracts.DirectionDown, pred.Direction)
	assert.InDelta(t, 3.0, pred.RawMagnitudePct, 1e-9)
	assert.InDelta(t, -3.0, pred.SignedMagnitudePct, 1e-9)
	assert.InDelta(t, 0.6, pred.ConfidenceScore, 1e-9)
	assert.InDelta(t, -1.8, pred.FinalPct, 1e-9)
}

func TestCombineCoinFlipPredictsZero(t *testing.T) {
	p := stubPipeline(0.5, 4.0)

	pred, err := Combine(p, []float64{100, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, pred.ConfidenceScore, 1e-12)
	assert.InDelta(t, 0.0, pred.FinalPct, 1e-12)
}

func TestCombineSchemaMismatch(t *testing.T) {
	p := stubPipeline(0.7, 1.0)

	_, err := Combine(p, []float64{100})
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrArtifactMismatch)
}

func TestCacheSingleFlight(t *testing.T) {
	cache := NewCache(time.Hour)
	var builds int32

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := cache.GetOrBuild("AAPL", func() (*training.Pipeline, error) {
				atomic.AddInt32(&builds, 1)
				time.Sleep(20 * time.Millisecond)
				return stubPipeline(0.6, 1.0), nil
			})
			assert.NoError(t, err)
			assert.NotNil(t, p)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds), "concurrent requests share one build")
}

func TestCacheTTL(t *testing.T) {
	cache := NewCache(time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Put("MSFT", stubPipeline(0.6, 1.0))
	_, ok := cache.Get("MSFT")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("MSFT")
	assert.False(t, ok, "entry expired")

	cache.Put("MSFT", stubPipeline(0.6, 1.0))
	cache.Invalidate("MSFT")
	_, ok = cache.Get("MSFT")
	assert.False(t, ok)
}

// fakeSource serves a deterministic synthetic series
type fakeSource struct {
	fetches int32
}

func (f *fakeSource) DailySeries(_ context.Context, ticker string) (*contracts.Series, error) {
	atomic.AddInt32(&f.fetches, 1)
	rng := rand.New(rand.NewSource(99))
	s := &contracts.Series{Ticker: ticker}
	price := 100.0
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 300; i++ {
		open := price
		price *= 1 + rng.NormFloat64()*0.012
		s.Bars = append(s.Bars, contracts.Bar{
			Date:   date,
			Open:   open,
			High:   math.Max(open, price) * 1.005,
			Low:    math.Min(open, price) * 0.995,
			Close:  price,
			Volume: 1e6,
		})
		date = date.AddDate(0, 0, 1)
	}
	return s, nil
}

func (f *fakeSource) MarketContext(context.Context) (*features.MarketContext, error) {
	return nil, nil
}

type memStore struct {
	mu    sync.Mutex
	saved map[string]*training.Pipeline
}

func (m *memStore) Save(_ context.Context, p *training.Pipeline) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]*training.Pipeline)
	}
	m.saved[p.Ticker] = p
	return nil
}

func (m *memStore) Load(_ context.Context, ticker string) (*training.Pipeline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.saved[ticker]
	if !ok {
		return nil, contracts.ErrArtifactNotFound
	}
	return p, nil
}

func newTestService(source MarketDataSource, store PipelineStore) *Service {
	log := testLogger()
	cfg := config.TrainingConfig{
		TrainRatio: 0.6,
		ValRatio:   0.8,
		Seed:       42,
		MaxBars:    1250,
		ModelTTL:   time.Hour,
	}
	engine := features.NewEngine(log, features.Options{})
	trainer := training.NewTrainer(log, models.Capabilities{}, cfg.Seed)
	return NewService(log, cfg, source, engine, trainer, store)
}

func TestServicePredictEndToEnd(t *testing.T) {
	source := &fakeSource{}
	store := &memStore{}
	svc := newTestService(source, store)

	pred, err := svc.Predict(context.Background(), "NVDA")
	require.NoError(t, err)

	assert.Equal(t, "NVDA", pred.Ticker)
	assert.Contains(t, []contracts.Direction{contracts.DirectionUp, contracts.DirectionDown}, pred.Direction)
	assert.GreaterOrEqual(t, pred.DirectionConfidence, 0.0)
	assert.LessOrEqual(t, pred.DirectionConfidence, 1.0)
	assert.GreaterOrEqual(t, pred.RawMagnitudePct, 0.0)
	assert.InDelta(t, pred.SignedMagnitudePct*pred.ConfidenceScore, pred.FinalPct, 1e-9)
	assert.Contains(t, []contracts.ConfidenceLabel{
		contracts.ConfidenceHigh, contracts.ConfidenceMedium, contracts.ConfidenceLow,
	}, pred.Confidence)

	// Training persisted the pipeline
	_, err = store.Load(context.Background(), "NVDA")
	require.NoError(t, err)

	// Second call reuses the cached pipeline: only the fresh feature
	// fetch happens.
	before := atomic.LoadInt32(&source.fetches)
	_, err = svc.Predict(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, before+1, atomic.LoadInt32(&source.fetches))
}

func TestServicePipelineWithoutTraining(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil)

	_, err := svc.Pipeline(context.Background(), "TSLA")
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrArtifactNotFound)

	_, err = svc.Train(context.Background(), "TSLA")
	require.NoError(t, err)

	p, err := svc.Pipeline(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", p.Ticker)
	assert.NotNil(t, p.Direction.Best)
	assert.NotNil(t, p.Magnitude.Best)
}

func TestServiceRetrainsOnSchemaMismatch(t *testing.T) {
	source := &fakeSource{}
	store := &memStore{}

	// Persist a pipeline trained under a stale feature set
	stale := stubPipeline(0.9, 1.0)
	stale.Ticker = "AMD"
	stale.TrainedAt = time.Now()
	require.NoError(t, store.Save(context.Background(), stale))

	svc := newTestService(source, store)
	pred, err := svc.Predict(context.Background(), "AMD")
	require.NoError(t, err, "mismatch triggers a retrain, not a failure")
	assert.Equal(t, "AMD", pred.Ticker)

	// The store now holds the retrained pipeline
	p, err := store.Load(context.Background(), "AMD")
	require.NoError(t, err)
	assert.NotEqual(t, "stub_dir", p.Direction.Best.Name)
}
