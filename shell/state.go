// Package shell is the presentation state of the calculator. All state lives
// in State and changes only through Update, which returns the side effects
// (Cmd) to run. Program executes those effects and feeds their results back.
package shell

import (
	"github.com/giygas/pediatric-drug-calculator/dosage"
	"github.com/giygas/pediatric-drug-calculator/entities"
)

// Tab is one of the three views
type Tab string

const (
	TabCalculator Tab = "calculator"
	TabRecent     Tab = "recent"
	TabDrugs      Tab = "drugs"
)

// Tabs in swipe order
var Tabs = []Tab{TabCalculator, TabRecent, TabDrugs}

// SwipeThreshold is the horizontal distance (px) a touch must travel to switch tabs
const SwipeThreshold = 75

// Outcome is the displayed result of the last calculation attempt
type Outcome struct {
	Calculation dosage.Calculation
	Advice      dosage.Advice
	Err         error // dosage.ErrInvalidWeight or dosage.ErrNoBandFound
}

// Computed reports the computed dose range, if any
func (o *Outcome) Computed() (dosage.Computed, bool) {
	if o == nil || o.Err != nil || o.Calculation.Dose == nil {
		return dosage.Computed{}, false
	}
	return o.Calculation.Computed()
}

// State is the complete presentation state
type State struct {
	Tab Tab

	Systems  []entities.MedicalSystem
	SystemID string
	Drugs    []entities.Drug
	DrugID   string
	Bands    []entities.DosageBand

	WeightInput string
	Result      *Outcome
	Recent      []entities.CalculationRecord

	LoadingDrugs bool
	LoadingBands bool
	Notice       string // last non-fatal problem, shown inline

	Online               bool
	InstallAvailable     bool
	Installed            bool
	NotificationsEnabled bool

	// latest request token issued per lookup kind
	drugsToken uint64
	bandsToken uint64
}

// NewState returns the initial state
func NewState() State {
	return State{
		Tab:    TabCalculator,
		Online: true,
		Recent: []entities.CalculationRecord{},
	}
}

// SelectedSystem returns the selected medical system
func (s State) SelectedSystem() (entities.MedicalSystem, bool) {
	for _, m := range s.Systems {
		if m.ID == s.SystemID {
			return m, true
		}
	}
	return entities.MedicalSystem{}, false
}

// SelectedDrug returns the selected drug
func (s State) SelectedDrug() (entities.Drug, bool) {
	for _, d := range s.Drugs {
		if d.ID == s.DrugID {
			return d, true
		}
	}
	return entities.Drug{}, false
}
