package shell

import (
	"strings"

	"github.com/giygas/pediatric-drug-calculator/dosage"
	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/history"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/notify"
)

// Update applies msg to s and returns the new state with the effects to run.
// It never performs I/O and never mutates slices reachable from s.
func Update(s State, msg Msg) (State, []Cmd) {
	switch m := msg.(type) {
	case Init:
		return s, []Cmd{FetchSystems{}, LoadHistory{}}

	case SystemsLoaded:
		if m.Err != nil {
			s.Notice = "Could not load medical systems"
			return s, nil
		}
		s.Systems = m.Systems
		return s, nil

	case SystemSelected:
		return selectSystem(s, strings.TrimSpace(m.SystemID))

	case DrugsLoaded:
		if m.Token != s.drugsToken {
			return s, nil
		}
		s.LoadingDrugs = false
		if m.Err != nil {
			s.Notice = "Could not load drugs"
			return s, nil
		}
		s.Drugs = m.Drugs
		return s, nil

	case DrugSelected:
		return selectDrug(s, strings.TrimSpace(m.DrugID))

	case DosagesLoaded:
		if m.Token != s.bandsToken {
			return s, nil
		}
		s.LoadingBands = false
		if m.Err != nil {
			s.Notice = "Could not load dosages"
			return s, nil
		}
		s.Bands = m.Bands
		return s, nil

	case WeightChanged:
		s.WeightInput = m.Input
		return s, nil

	case CalculateRequested:
		return calculate(s)

	case CalculationRecorded:
		if m.Record.ID != "" {
			s.Recent = prependRecent(s.Recent, m.Record)
		}
		if m.Err != nil {
			s.Notice = "Calculation could not be saved"
		}
		return s, nil

	case HistoryLoaded:
		if m.Err != nil {
			s.Notice = "Recent calculations unavailable"
			return s, nil
		}
		s.Recent = m.Records
		return s, nil

	case TabSelected:
		if tabIndex(m.Tab) >= 0 {
			s.Tab = m.Tab
		}
		return s, nil

	case Swiped:
		s.Tab = swipe(s.Tab, m.StartX-m.EndX)
		return s, nil

	case ConnectivityChanged:
		s.Online = m.Online
		return s, nil

	case InstallPromptAvailable:
		if !s.Installed {
			s.InstallAvailable = true
		}
		return s, nil

	case InstallChoice:
		if m.Accepted {
			s.Installed = true
		}
		s.InstallAvailable = false
		return s, nil

	case NotificationPermission:
		s.NotificationsEnabled = m.Granted
		if !m.Granted {
			return s, nil
		}
		return s, []Cmd{SendNotification{Notification: interfaces.Notification{
			Title: "Pediatric Drug Calculator",
			Body:  "Notifications enabled! You will receive dosage reminders.",
			Icon:  notify.DefaultIcon,
		}}}

	case NotificationSent:
		if m.Err != nil {
			s.Notice = "Notification could not be delivered"
		}
		return s, nil

	case ShareRequested:
		computed, ok := s.Result.Computed()
		if !ok {
			return s, nil
		}
		return s, []Cmd{Share{Text: dosage.ShareText(computed.String(), s.Result.Calculation.Weight)}}

	case ShareCompleted:
		if m.Err != nil {
			s.Notice = "Calculation could not be shared"
		}
		return s, nil
	}

	return s, nil
}

func selectSystem(s State, systemID string) (State, []Cmd) {
	s.SystemID = systemID
	s.Drugs = nil
	s.DrugID = ""
	s.Bands = nil
	s.Result = nil
	s.Notice = ""
	s.LoadingBands = false
	// outstanding dosage responses belong to the previous drug
	s.bandsToken++
	s.drugsToken++

	if systemID == "" {
		s.LoadingDrugs = false
		return s, nil
	}
	s.LoadingDrugs = true
	return s, []Cmd{FetchDrugs{Token: s.drugsToken, SystemID: systemID}}
}

func selectDrug(s State, drugID string) (State, []Cmd) {
	s.DrugID = drugID
	s.Bands = nil
	s.Result = nil
	s.Notice = ""
	s.bandsToken++

	if drugID == "" {
		s.LoadingBands = false
		return s, nil
	}
	s.LoadingBands = true
	return s, []Cmd{FetchDosages{Token: s.bandsToken, DrugID: drugID}}
}

func calculate(s State) (State, []Cmd) {
	if s.DrugID == "" {
		s.Notice = "Select a drug first"
		return s, nil
	}
	if s.LoadingBands {
		s.Notice = "Loading dosages, try again in a moment"
		return s, nil
	}
	s.Notice = ""

	weight, err := dosage.ParseWeight(s.WeightInput)
	if err != nil {
		s.Result = &Outcome{Err: err, Advice: dosage.Advise(dosage.Calculation{}, err)}
		return s, nil
	}

	calc, err := dosage.Calculate(weight, s.Bands)
	s.Result = &Outcome{Calculation: calc, Advice: dosage.Advise(calc, err), Err: err}
	if err != nil {
		return s, nil
	}

	computed, ok := calc.Computed()
	if !ok {
		return s, nil
	}

	drugName := "Unknown"
	if d, ok := s.SelectedDrug(); ok {
		drugName = d.Name
	}
	systemName := "Unknown"
	if m, ok := s.SelectedSystem(); ok {
		systemName = m.Name
	}

	cmds := []Cmd{RecordCalculation{Entry: entities.CalculationRecord{
		DrugName:   drugName,
		SystemName: systemName,
		Dose:       computed.String(),
		Weight:     weight,
		Frequency:  calc.Band.Frequency,
		Route:      calc.Band.Route,
	}}}
	if s.NotificationsEnabled {
		cmds = append(cmds, SendNotification{Notification: notify.DoseCalculated(computed.String(), drugName)})
	}
	return s, cmds
}

func prependRecent(recent []entities.CalculationRecord, rec entities.CalculationRecord) []entities.CalculationRecord {
	out := make([]entities.CalculationRecord, 0, history.MaxEntries)
	out = append(out, rec)
	for _, r := range recent {
		if len(out) == history.MaxEntries {
			break
		}
		out = append(out, r)
	}
	return out
}

// swipe moves to the next tab on a left swipe (positive delta) and to the
// previous tab on a right swipe, staying put at either end.
func swipe(current Tab, delta float64) Tab {
	i := tabIndex(current)
	if i < 0 {
		return current
	}
	switch {
	case delta > SwipeThreshold && i < len(Tabs)-1:
		return Tabs[i+1]
	case delta < -SwipeThreshold && i > 0:
		return Tabs[i-1]
	}
	return current
}

func tabIndex(t Tab) int {
	for i, known := range Tabs {
		if known == t {
			return i
		}
	}
	return -1
}
