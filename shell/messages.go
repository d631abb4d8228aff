package shell

import (
	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
)

// Msg is an input to Update: a user action or the result of a Cmd
type Msg interface{ isMsg() }

type (
	Init          struct{}
	SystemsLoaded struct {
		Systems []entities.MedicalSystem
		Err     error
	}
	SystemSelected struct{ SystemID string }
	DrugsLoaded    struct {
		Token uint64
		Drugs []entities.Drug
		Err   error
	}
	DrugSelected  struct{ DrugID string }
	DosagesLoaded struct {
		Token uint64
		Bands []entities.DosageBand
		Err   error
	}
	WeightChanged       struct{ Input string }
	CalculateRequested  struct{}
	CalculationRecorded struct {
		Record entities.CalculationRecord
		Err    error
	}
	HistoryLoaded struct {
		Records []entities.CalculationRecord
		Err     error
	}
	TabSelected            struct{ Tab Tab }
	Swiped                 struct{ StartX, EndX float64 }
	ConnectivityChanged    struct{ Online bool }
	InstallPromptAvailable struct{}
	InstallChoice          struct{ Accepted bool }
	NotificationPermission struct{ Granted bool }
	NotificationSent       struct{ Err error }
	ShareRequested         struct{}
	ShareCompleted         struct{ Err error }
)

func (Init) isMsg()                   {}
func (SystemsLoaded) isMsg()          {}
func (SystemSelected) isMsg()         {}
func (DrugsLoaded) isMsg()            {}
func (DrugSelected) isMsg()           {}
func (DosagesLoaded) isMsg()          {}
func (WeightChanged) isMsg()          {}
func (CalculateRequested) isMsg()     {}
func (CalculationRecorded) isMsg()    {}
func (HistoryLoaded) isMsg()          {}
func (TabSelected) isMsg()            {}
func (Swiped) isMsg()                 {}
func (ConnectivityChanged) isMsg()    {}
func (InstallPromptAvailable) isMsg() {}
func (InstallChoice) isMsg()          {}
func (NotificationPermission) isMsg() {}
func (NotificationSent) isMsg()       {}
func (ShareRequested) isMsg()         {}
func (ShareCompleted) isMsg()         {}

// Cmd is a side effect requested by Update
type Cmd interface{ isCmd() }

type (
	FetchSystems struct{}
	FetchDrugs   struct {
		Token    uint64
		SystemID string
	}
	FetchDosages struct {
		Token  uint64
		DrugID string
	}
	RecordCalculation struct{ Entry entities.CalculationRecord }
	LoadHistory       struct{}
	SendNotification  struct{ Notification interfaces.Notification }
	Share             struct{ Text string }
)

func (FetchSystems) isCmd()      {}
func (FetchDrugs) isCmd()        {}
func (FetchDosages) isCmd()      {}
func (RecordCalculation) isCmd() {}
func (LoadHistory) isCmd()       {}
func (SendNotification) isCmd()  {}
func (Share) isCmd()             {}
