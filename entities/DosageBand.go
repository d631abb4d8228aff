package entities

// AgeGroup is the pediatric age bracket a dosage band is authored for.
type AgeGroup string

const (
	AgeGroupNeonate    AgeGroup = "Neonate"
	AgeGroupInfant     AgeGroup = "Infant"
	AgeGroupChild      AgeGroup = "Child"
	AgeGroupAdolescent AgeGroup = "Adolescent"
)

// AgeGroups lists the known age groups in clinical order.
var AgeGroups = []AgeGroup{AgeGroupNeonate, AgeGroupInfant, AgeGroupChild, AgeGroupAdolescent}

// Rank returns the clinical position of the age group. Unknown labels rank
// after every known group.
func (g AgeGroup) Rank() int {
	for i, known := range AgeGroups {
		if g == known {
			return i
		}
	}
	return len(AgeGroups)
}

// DosageBand is one row of per-age/weight dosing guidance for a drug.
type DosageBand struct {
	ID          string   `json:"id"`
	DrugID      string   `json:"drugId"`
	AgeGroup    AgeGroup `json:"ageGroup"`
	WeightRange string   `json:"weightRange,omitempty"` // "10-40 kg" or ">40 kg"
	Dose        string   `json:"dose"`
	Frequency   string   `json:"frequency,omitempty"`
	Route       string   `json:"route,omitempty"`
	MaxDose     string   `json:"maxDose,omitempty"`
	MinDose     string   `json:"minDose,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}
