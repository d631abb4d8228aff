package shell

import (
	"fmt"
	"strings"

	"github.com/giygas/pediatric-drug-calculator/entities"
)

// Render draws the current tab as plain text
func Render(s State) string {
	var b strings.Builder

	for i, t := range Tabs {
		if i > 0 {
			b.WriteString(" | ")
		}
		if t == s.Tab {
			fmt.Fprintf(&b, "[%s]", t)
		} else {
			b.WriteString(string(t))
		}
	}
	if !s.Online {
		b.WriteString("   (offline)")
	}
	b.WriteString("\n\n")

	switch s.Tab {
	case TabCalculator:
		renderCalculator(&b, s)
	case TabRecent:
		renderRecent(&b, s.Recent)
	case TabDrugs:
		renderBands(&b, s)
	}

	if s.Notice != "" {
		fmt.Fprintf(&b, "\n! %s\n", s.Notice)
	}
	return b.String()
}

func renderCalculator(b *strings.Builder, s State) {
	system := "(none)"
	if m, ok := s.SelectedSystem(); ok {
		system = m.Icon + " " + m.Name
	}
	drug := "(none)"
	if d, ok := s.SelectedDrug(); ok {
		drug = d.Name
	}

	fmt.Fprintf(b, "System: %s\n", system)
	if s.LoadingDrugs {
		b.WriteString("Drug:   loading...\n")
	} else {
		fmt.Fprintf(b, "Drug:   %s\n", drug)
	}
	fmt.Fprintf(b, "Weight: %s kg\n", s.WeightInput)

	if s.Result == nil {
		return
	}
	fmt.Fprintf(b, "\n%s\n", s.Result.Advice.Headline)
	for _, line := range s.Result.Advice.Details {
		fmt.Fprintf(b, "  %s\n", line)
	}
}

func renderRecent(b *strings.Builder, recent []entities.CalculationRecord) {
	if len(recent) == 0 {
		b.WriteString("No recent calculations\n")
		return
	}
	for _, r := range recent {
		fmt.Fprintf(b, "%s  %s (%s)  %s kg  %s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04"), r.DrugName, r.SystemName,
			trimFloat(r.Weight), r.Dose)
	}
}

func renderBands(b *strings.Builder, s State) {
	if s.LoadingBands {
		b.WriteString("Loading dosages...\n")
		return
	}
	if len(s.Bands) == 0 {
		b.WriteString("Select a drug to see its dosage information\n")
		return
	}
	for _, band := range s.Bands {
		fmt.Fprintf(b, "%-10s %-9s %s", band.AgeGroup, band.WeightRange, band.Dose)
		if band.Frequency != "" {
			fmt.Fprintf(b, ", %s", band.Frequency)
		}
		if band.Route != "" {
			fmt.Fprintf(b, " (%s)", band.Route)
		}
		if band.MaxDose != "" {
			fmt.Fprintf(b, ", max %s", band.MaxDose)
		}
		b.WriteString("\n")
	}
}

func trimFloat(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
