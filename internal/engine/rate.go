package engine

import (
	"math"
	"time"

	"photosynthesis-lab/internal/domain"
)

const (
	MinLevel           = 0
	MaxLevel           = 100
	MinTemperature     = 5
	MaxTemperature     = 45
	OptimalTemperature = 27.5

	// BubbleThreshold is the rate a plant must exceed to release oxygen.
	BubbleThreshold = 10.0

	lightSaturation = 80
	baseEmission    = 2 * time.Second
)

// Advisory messages shown next to the rate.
const (
	MessageHigh   = "Excellent! Optimal photosynthesis conditions!"
	MessageMedium = "Good rate. Try adjusting factors for better results."
	MessageLow    = "Low rate. Check your conditions - something is limiting photosynthesis."
)

// DefaultInputs are the slider positions of a fresh or reset simulation.
var DefaultInputs = domain.EnvironmentalInputs{Light: 50, Water: 50, Temperature: 25}

// ComputeRate maps the environment onto a 0..100 photosynthesis rate.
// Out-of-range inputs are clamped first.
func ComputeRate(in domain.EnvironmentalInputs) domain.RateResult {
	in = ClampInputs(in)

	lightEffect := float64(in.Light)
	if in.Light > lightSaturation {
		// excess light damages the leaf; the effect may go negative
		lightEffect = lightSaturation - float64(in.Light-lightSaturation)*2
	}
	tempEffect := math.Max(0, 100-math.Abs(float64(in.Temperature)-OptimalTemperature)*4)
	waterEffect := float64(in.Water)

	rate := clampFloat(lightEffect*0.4+tempEffect*0.3+waterEffect*0.3, 0, 100)
	band := BandFor(rate)
	return domain.RateResult{Value: rate, Band: band, Message: BandMessage(band)}
}

// BandFor buckets a rate: High above 70, Medium above 40, Low otherwise.
func BandFor(rate float64) domain.Band {
	switch {
	case rate > 70:
		return domain.BandHigh
	case rate > 40:
		return domain.BandMedium
	default:
		return domain.BandLow
	}
}

func BandMessage(b domain.Band) string {
	switch b {
	case domain.BandHigh:
		return MessageHigh
	case domain.BandMedium:
		return MessageMedium
	default:
		return MessageLow
	}
}

// EmissionInterval is the gap between oxygen bubbles at the given rate.
// Higher rates emit faster.
func EmissionInterval(rate float64) time.Duration {
	rate = clampFloat(rate, 0, 100)
	return time.Duration(float64(baseEmission) / (rate/20 + 1))
}

// ClampInputs pulls every input back into its slider range.
func ClampInputs(in domain.EnvironmentalInputs) domain.EnvironmentalInputs {
	return domain.EnvironmentalInputs{
		Light:       clampInt(in.Light, MinLevel, MaxLevel),
		Water:       clampInt(in.Water, MinLevel, MaxLevel),
		Temperature: clampInt(in.Temperature, MinTemperature, MaxTemperature),
	}
}

// Hints describes each input on its own terms.
func Hints(in domain.EnvironmentalInputs) domain.FactorHints {
	in = ClampInputs(in)
	var h domain.FactorHints

	switch {
	case in.Light < 30:
		h.Light = "⚠️ Too dark - not enough energy for photosynthesis"
	case in.Light <= 80:
		h.Light = "✅ Good light level for photosynthesis"
	default:
		h.Light = "⚠️ Very bright - may damage plant cells"
	}

	switch {
	case in.Water < 30:
		h.Water = "⚠️ Water stress - stomata closing to conserve water"
	case in.Water <= 80:
		h.Water = "✅ Adequate water supply"
	default:
		h.Water = "✅ Excellent hydration"
	}

	switch {
	case in.Temperature < 15:
		h.Temperature = "⚠️ Too cold - enzymes work slowly"
	case in.Temperature <= 35:
		h.Temperature = "✅ Optimal temperature range for enzymes"
	default:
		h.Temperature = "⚠️ Too hot - enzymes may denature"
	}
	return h
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
