package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/leadcascade/internal/domain"
)

var _ domain.TransitionValidator = (*Validator)(nil)

// Validator checks assignment lifecycle events with looplab/fsm.
// looplab machines hold their current state, so Apply builds a throwaway
// machine seeded with the row's status on every call.
type Validator struct {
	events []loopfsm.EventDesc
}

// New creates a validator for domain.Transitions.
func New() *Validator {
	return &Validator{events: eventDescs(domain.Transitions)}
}

// eventDescs folds transitions sharing an event and destination into one
// EventDesc with several sources, the shape looplab expects.
func eventDescs(transitions []domain.Transition) []loopfsm.EventDesc {
	index := make(map[[2]string]int)
	var out []loopfsm.EventDesc

	for _, t := range transitions {
		k := [2]string{string(t.Event), string(t.Dst)}
		if i, ok := index[k]; ok {
			out[i].Src = append(out[i].Src, string(t.Src))
			continue
		}
		index[k] = len(out)
		out = append(out, loopfsm.EventDesc{
			Name: string(t.Event),
			Src:  []string{string(t.Src)},
			Dst:  string(t.Dst),
		})
	}
	return out
}

// Apply returns the status an assignment in current moves to on event, or a
// *domain.TransitionError when the lifecycle forbids it.
func (v *Validator) Apply(ctx context.Context, current domain.Status, event domain.Event) (domain.Status, error) {
	machine := loopfsm.NewFSM(string(current), v.events, nil)

	err := machine.Event(ctx, string(event))
	if err == nil {
		return domain.Status(machine.Current()), nil
	}

	var invalidEvent loopfsm.InvalidEventError
	var unknownEvent loopfsm.UnknownEventError
	if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) {
		return "", &domain.TransitionError{Event: event, Current: current}
	}
	return "", err
}
