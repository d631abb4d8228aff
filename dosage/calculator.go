// Package dosage selects the dosage band that applies to a patient weight and,
// when the band's dose is a linear per-kilogram daily range, computes the
// absolute dose range for that weight.
//
// The package is pure: nothing here performs I/O or mutates its inputs.
package dosage

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/giygas/pediatric-drug-calculator/entities"
)

var (
	// ErrInvalidWeight is returned for a missing, zero, negative or non-numeric weight.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrNoBandFound means no authored band covers the weight.
	ErrNoBandFound = errors.New("no dosage band found for weight")
	// ErrUnsupportedDoseFormat means the dose text is not a "<a>-<b> mg/kg/day" range.
	ErrUnsupportedDoseFormat = errors.New("unsupported dose format")
)

// Pre-compiled patterns, compiled once at package initialization
var (
	closedRangeRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)$`)
	lowerBoundRegex  = regexp.MustCompile(`^(?:>=|≥|>)?\s*(\d+(?:\.\d+)?)$`)
	perKgDayRegex    = regexp.MustCompile(`(\d+(?:\.\d+)?)-(\d+(?:\.\d+)?)\s*mg/kg/day`)
)

// WeightRange is the interval of body mass (kg) a band applies to.
type WeightRange struct {
	Min       float64
	Max       float64
	OpenEnded bool // only Min is meaningful
}

// Contains reports whether weight falls inside the range, bounds included.
func (r WeightRange) Contains(weight float64) bool {
	if r.OpenEnded {
		return weight >= r.Min
	}
	return weight >= r.Min && weight <= r.Max
}

func (r WeightRange) String() string {
	if r.OpenEnded {
		return ">" + formatNumber(r.Min) + " kg"
	}
	return formatNumber(r.Min) + "-" + formatNumber(r.Max) + " kg"
}

// ParseWeightRange parses "10-40 kg" as a closed interval and ">40 kg" (or any
// single number) as an open-ended lower bound. The "kg" suffix is optional.
func ParseWeightRange(s string) (WeightRange, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(s), "kg"))
	if s == "" {
		return WeightRange{}, false
	}

	if m := closedRangeRegex.FindStringSubmatch(s); m != nil {
		low, errLow := strconv.ParseFloat(m[1], 64)
		high, errHigh := strconv.ParseFloat(m[2], 64)
		if errLow != nil || errHigh != nil {
			return WeightRange{}, false
		}
		return WeightRange{Min: low, Max: high}, true
	}

	if m := lowerBoundRegex.FindStringSubmatch(s); m != nil {
		low, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return WeightRange{}, false
		}
		return WeightRange{Min: low, OpenEnded: true}, true
	}

	return WeightRange{}, false
}

// ValidateWeight rejects weights that are not finite positive numbers.
func ValidateWeight(weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}
	return nil
}

// ParseWeight parses user input in kilograms.
func ParseWeight(input string) (float64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidWeight)
	}
	weight, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeight, input)
	}
	if err := ValidateWeight(weight); err != nil {
		return 0, err
	}
	return weight, nil
}

// SelectBand returns the first band, in input order, whose weight range
// contains weight. Overlapping bands are not disambiguated.
func SelectBand(weight float64, bands []entities.DosageBand) (entities.DosageBand, error) {
	if err := ValidateWeight(weight); err != nil {
		return entities.DosageBand{}, err
	}

	for _, band := range bands {
		r, ok := ParseWeightRange(band.WeightRange)
		if !ok {
			continue
		}
		if r.Contains(weight) {
			return band, nil
		}
	}

	return entities.DosageBand{}, ErrNoBandFound
}

// Result is the outcome of interpreting a band's dose text: either Computed
// or Unparsed.
type Result interface {
	isResult()
	String() string
}

// Computed is an absolute daily dose range derived from a per-kg range.
type Computed struct {
	Low       float64 `json:"low"`
	High      float64 `json:"high"`
	PerKgLow  float64 `json:"perKgLow"`
	PerKgHigh float64 `json:"perKgHigh"`
}

func (Computed) isResult() {}

// String renders the range as "<low> - <high> mg/day" with one decimal.
func (c Computed) String() string {
	return strconv.FormatFloat(c.Low, 'f', 1, 64) + " - " + strconv.FormatFloat(c.High, 'f', 1, 64) + " mg/day"
}

// PerKgString renders the authored range, e.g. "40 - 90 mg/kg/day".
func (c Computed) PerKgString() string {
	return formatNumber(c.PerKgLow) + " - " + formatNumber(c.PerKgHigh) + " mg/kg/day"
}

// Unparsed carries dose text that must be read by a human.
type Unparsed struct {
	Raw string `json:"raw"`
}

func (Unparsed) isResult() {}

func (u Unparsed) String() string { return u.Raw }

// ComputeDose multiplies a "<a>-<b> mg/kg/day" range by weight. Both ends are
// rounded half away from zero to one decimal place.
func ComputeDose(weight float64, dose string) (Computed, error) {
	if err := ValidateWeight(weight); err != nil {
		return Computed{}, err
	}

	m := perKgDayRegex.FindStringSubmatch(dose)
	if m == nil {
		return Computed{}, fmt.Errorf("%w: %q", ErrUnsupportedDoseFormat, dose)
	}

	perKgLow, errLow := strconv.ParseFloat(m[1], 64)
	perKgHigh, errHigh := strconv.ParseFloat(m[2], 64)
	if errLow != nil || errHigh != nil {
		return Computed{}, fmt.Errorf("%w: %q", ErrUnsupportedDoseFormat, dose)
	}

	low, high := roundTenth(perKgLow*weight), roundTenth(perKgHigh*weight)
	if math.IsInf(low, 0) || math.IsInf(high, 0) {
		return Computed{}, fmt.Errorf("%w: %v kg overflows the dose range", ErrInvalidWeight, weight)
	}

	return Computed{
		Low:       low,
		High:      high,
		PerKgLow:  perKgLow,
		PerKgHigh: perKgHigh,
	}, nil
}

// Calculation is a band selected for a weight together with its dose outcome.
type Calculation struct {
	Weight float64
	Band   entities.DosageBand
	Dose   Result
}

// Computed returns the computed range when the band's dose was machine-readable.
func (c Calculation) Computed() (Computed, bool) {
	computed, ok := c.Dose.(Computed)
	return computed, ok
}

// Outcome is a short label for metrics and API responses.
func (c Calculation) Outcome() string {
	if _, ok := c.Dose.(Computed); ok {
		return OutcomeComputed
	}
	return OutcomeUnparsed
}

// Outcome labels
const (
	OutcomeComputed = "computed"
	OutcomeUnparsed = "unparsed"
	OutcomeNoBand   = "no_band"
	OutcomeInvalid  = "invalid_weight"
)

// Calculate selects the applicable band and interprets its dose. An
// unsupported dose format is not an error here: the band is returned with an
// Unparsed result so callers can surface the raw text.
func Calculate(weight float64, bands []entities.DosageBand) (Calculation, error) {
	band, err := SelectBand(weight, bands)
	if err != nil {
		return Calculation{}, err
	}

	calc := Calculation{Weight: weight, Band: band}
	computed, err := ComputeDose(weight, band.Dose)
	switch {
	case err == nil:
		calc.Dose = computed
	case errors.Is(err, ErrUnsupportedDoseFormat):
		calc.Dose = Unparsed{Raw: band.Dose}
	default:
		return Calculation{}, err
	}

	return calc, nil
}

// OutcomeOf maps a Calculate error to its outcome label.
func OutcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrNoBandFound):
		return OutcomeNoBand
	case errors.Is(err, ErrInvalidWeight):
		return OutcomeInvalid
	default:
		return ""
	}
}

func roundTenth(v float64) float64 {
	scaled := v * 10
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.Round(scaled) / 10
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
