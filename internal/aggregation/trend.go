package aggregation

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

var (
	trendBaselineRatio = decimal.NewFromFloat(0.9)
	trendNoiseRatio    = decimal.NewFromFloat(0.02)
)

// NoiseFunc returns a perturbation factor in [-1, 1].
type NoiseFunc func() float64

// RandomNoise draws a uniform factor in [-1, 1).
func RandomNoise() float64 {
	return rand.Float64()*2 - 1
}

// NoNoise yields a straight interpolation.
func NoNoise() float64 { return 0 }

// SynthesizeTrend interpolates a daily series that ends at current. The
// series starts from 90% of current, moves linearly towards it and is
// perturbed by up to 2% of current per point. Values are clamped at zero and
// rounded to cents. It approximates history; it is not derived from it.
func SynthesizeTrend(current decimal.Decimal, days int, now time.Time, noise NoiseFunc) domain.BalanceTrend {
	trend := domain.BalanceTrend{Points: make([]domain.BalanceTrendPoint, 0, max(days, 0)), Synthetic: true}
	if days <= 0 {
		return trend
	}
	if noise == nil {
		noise = NoNoise
	}

	today := StartOfDay(now)
	baseline := current.Mul(trendBaselineRatio)
	span := current.Sub(baseline)
	total := decimal.NewFromInt(int64(days))

	for i := days - 1; i >= 0; i-- {
		progress := decimal.NewFromInt(int64(days - i)).Div(total)
		perturbation := current.Mul(trendNoiseRatio).Mul(decimal.NewFromFloat(clampUnit(noise())))

		value := baseline.Add(span.Mul(progress)).Add(perturbation)
		if value.IsNegative() {
			value = decimal.Zero
		}
		trend.Points = append(trend.Points, domain.BalanceTrendPoint{
			Timestamp: today.AddDate(0, 0, -i),
			Value:     value.Round(2),
		})
	}
	return trend
}

func clampUnit(f float64) float64 {
	switch {
	case f > 1:
		return 1
	case f < -1:
		return -1
	}
	return f
}
