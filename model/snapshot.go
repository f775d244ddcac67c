package model

import (
	"time"
)

// Snapshot is one immutable point-in-time state of a dataset. The source
// and backup copies of the same snapshot share a Name; CreatedAt gives the
// creation order within one dataset.
type Snapshot struct {
	Dataset   DatasetName
	Name      string
	CreatedAt int64
}

func (snap *Snapshot) Time() time.Time {
	return time.Unix(snap.CreatedAt, 0)
}

func (snap *Snapshot) String() string {
	return snap.Dataset.Path() + "@" + snap.Name
}

func (snap *Snapshot) Less(other *Snapshot) bool {
	if snap.CreatedAt != other.CreatedAt {
		return snap.CreatedAt < other.CreatedAt
	}
	return snap.Name < other.Name
}

func (snap *Snapshot) More(other *Snapshot) bool {
	return other.Less(snap)
}
