package shell

import (
	"context"
	"sync"

	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
)

// Lookup is the read side the shell needs. Both the in-process lookup
// service and the HTTP client satisfy it.
type Lookup interface {
	Systems(ctx context.Context) ([]entities.MedicalSystem, error)
	Drugs(ctx context.Context, systemID string) ([]entities.Drug, error)
	DosageBands(ctx context.Context, drugID string) ([]entities.DosageBand, error)
}

// ShareFunc publishes share text (clipboard, stdout...)
type ShareFunc func(ctx context.Context, text string) error

// Program owns a State and executes the Cmds that Update returns.
// Dispatch may be called from several goroutines.
type Program struct {
	lookup   Lookup
	history  interfaces.CalculationHistory
	notifier interfaces.Notifier
	share    ShareFunc

	mu    sync.Mutex
	state State
}

// NewProgram creates a program starting from NewState
func NewProgram(lookup Lookup, history interfaces.CalculationHistory, notifier interfaces.Notifier, share ShareFunc) *Program {
	return &Program{
		lookup:   lookup,
		history:  history,
		notifier: notifier,
		share:    share,
		state:    NewState(),
	}
}

// State returns a copy of the current state
func (p *Program) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Dispatch applies msg, runs the resulting commands concurrently and then
// dispatches their results. It returns once every effect has settled.
func (p *Program) Dispatch(ctx context.Context, msg Msg) State {
	p.mu.Lock()
	next, cmds := Update(p.state, msg)
	p.state = next
	p.mu.Unlock()

	if len(cmds) == 0 {
		return next
	}

	results := make(chan Msg, len(cmds))
	var wg sync.WaitGroup
	for _, cmd := range cmds {
		wg.Add(1)
		go func(cmd Cmd) {
			defer wg.Done()
			if m := p.exec(ctx, cmd); m != nil {
				results <- m
			}
		}(cmd)
	}
	wg.Wait()
	close(results)

	for m := range results {
		p.Dispatch(ctx, m)
	}
	return p.State()
}

func (p *Program) exec(ctx context.Context, cmd Cmd) Msg {
	switch c := cmd.(type) {
	case FetchSystems:
		systems, err := p.lookup.Systems(ctx)
		return SystemsLoaded{Systems: systems, Err: err}

	case FetchDrugs:
		drugs, err := p.lookup.Drugs(ctx, c.SystemID)
		return DrugsLoaded{Token: c.Token, Drugs: drugs, Err: err}

	case FetchDosages:
		bands, err := p.lookup.DosageBands(ctx, c.DrugID)
		return DosagesLoaded{Token: c.Token, Bands: bands, Err: err}

	case RecordCalculation:
		if p.history == nil {
			return nil
		}
		rec, err := p.history.Record(ctx, c.Entry)
		return CalculationRecorded{Record: rec, Err: err}

	case LoadHistory:
		if p.history == nil {
			return nil
		}
		records, err := p.history.List(ctx)
		return HistoryLoaded{Records: records, Err: err}

	case SendNotification:
		if p.notifier == nil {
			return nil
		}
		return NotificationSent{Err: p.notifier.Notify(ctx, c.Notification)}

	case Share:
		if p.share == nil {
			return nil
		}
		return ShareCompleted{Err: p.share(ctx, c.Text)}
	}

	logging.Warn("Unhandled shell command", "cmd", cmd)
	return nil
}
