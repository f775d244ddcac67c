package model

import (
	"errors"
	"fmt"
)

// ErrNoLineage means the backup dataset has snapshots, but none of them
// appears in the source's current history. The two sides have diverged and
// syncing would require destroying backup state, which this engine never
// does; the caller reports the dataset and moves on.
var ErrNoLineage = errors.New("backup shares no snapshot with source")

type PlanKind int

const (
	PlanFull PlanKind = iota
	PlanIncremental
)

// TransferPlan is the send range for one dataset.
//
// A full plan seeds the backup with a whole copy of Initial (the oldest
// source snapshot), then brings it up to Target with an
// intermediate-inclusive incremental; that way the backup ends up holding
// the source's entire retained history, not just the newest state.
//
// An incremental plan sends Base→Target with all intermediates, where Base
// is the newest snapshot already present on both sides.
type TransferPlan struct {
	Kind    PlanKind
	Initial *Snapshot // oldest source snapshot; full plans only
	Base    *Snapshot // shared base; incremental plans only
	Target  *Snapshot
}

func (plan *TransferPlan) String() string {
	switch plan.Kind {
	case PlanFull:
		return fmt.Sprintf("full %s through %s", plan.Initial, plan.Target.Name)
	case PlanIncremental:
		return fmt.Sprintf("incremental %s through %s", plan.Base, plan.Target.Name)
	default:
		return "invalid plan"
	}
}

// Phase is one pipeline execution within a plan: a single send stream.
// BaseName is empty for a whole-snapshot send.
type Phase struct {
	BaseName string
	Target   *Snapshot
}

// Phases expands the plan into the send streams to execute, in order.
func (plan *TransferPlan) Phases() []Phase {
	switch plan.Kind {
	case PlanFull:
		phases := []Phase{{Target: plan.Initial}}
		if plan.Initial.Name != plan.Target.Name {
			phases = append(phases, Phase{BaseName: plan.Initial.Name, Target: plan.Target})
		}
		return phases
	case PlanIncremental:
		return []Phase{{BaseName: plan.Base.Name, Target: plan.Target}}
	default:
		return nil
	}
}

// Resolve computes the transfer plan for one dataset given the ordered
// source and backup snapshot lists. It is pure: same lists in, same plan
// out.
//
// A nil plan with a nil error means the backup is already up to date.
func Resolve(source, backup *Snapshots) (*TransferPlan, error) {
	if source.Len() == 0 {
		return nil, fmt.Errorf("source has no snapshots")
	}
	latest := source.Newest()

	if backup.Len() == 0 {
		return &TransferPlan{
			Kind:    PlanFull,
			Initial: source.Oldest(),
			Target:  latest,
		}, nil
	}

	// The base is the newest snapshot present on both sides; anything older
	// would retransmit data the backup already holds.
	var base *Snapshot
	for snap := range source.AllDesc() {
		if backup.Has(snap) {
			base = snap
			break
		}
	}
	if base == nil {
		return nil, fmt.Errorf("%d backup snapshots: %w", backup.Len(), ErrNoLineage)
	}

	if base.Name == latest.Name {
		return nil, nil
	}

	return &TransferPlan{
		Kind:   PlanIncremental,
		Base:   base,
		Target: latest,
	}, nil
}
