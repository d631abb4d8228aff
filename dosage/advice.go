package dosage

import (
	"errors"
	"fmt"
)

// Advice is the user-facing summary of a calculation attempt.
type Advice struct {
	Headline string   `json:"headline"`
	Details  []string `json:"details"`
}

const notSpecified = "Not specified"

// Advise turns the result of Calculate into display text. It never hides the
// raw band: unparsed doses are echoed back for manual reading.
func Advise(calc Calculation, err error) Advice {
	switch {
	case errors.Is(err, ErrInvalidWeight):
		return Advice{
			Headline: "Enter a valid patient weight in kilograms",
			Details:  []string{"Weight must be a positive number"},
		}
	case errors.Is(err, ErrNoBandFound):
		return Advice{
			Headline: "No appropriate dosage found for this weight",
			Details:  []string{"Please consult a healthcare professional"},
		}
	case err != nil:
		return Advice{Headline: "Dosage could not be calculated", Details: []string{err.Error()}}
	}

	band := calc.Band
	if computed, ok := calc.Computed(); ok {
		return Advice{
			Headline: computed.String(),
			Details: []string{
				fmt.Sprintf("Patient Weight: %s kg", formatNumber(calc.Weight)),
				"Dosage Range: " + computed.PerKgString(),
				"Frequency: " + orDefault(band.Frequency, notSpecified),
				"Route: " + orDefault(band.Route, notSpecified),
				"Maximum Dose: " + orDefault(band.MaxDose, notSpecified),
				"Notes: " + orDefault(band.Notes, "None"),
			},
		}
	}

	return Advice{
		Headline: "Dosage calculation format not recognized",
		Details: []string{
			"Please consult the dosage information manually",
			fmt.Sprintf("Age Group: %s", band.AgeGroup),
			"Weight Range: " + orDefault(band.WeightRange, notSpecified),
			"Dose: " + band.Dose,
			"Frequency: " + orDefault(band.Frequency, notSpecified),
			"Route: " + orDefault(band.Route, notSpecified),
			"Maximum Dose: " + orDefault(band.MaxDose, notSpecified),
			"Notes: " + orDefault(band.Notes, "None"),
		},
	}
}

// ShareText is the message used when a computed calculation is shared.
func ShareText(dose string, weight float64) string {
	return fmt.Sprintf("Calculated dose: %s for %skg patient", dose, formatNumber(weight))
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
