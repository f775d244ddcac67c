package model

// DatasetName is the full path of a dataset within its pool, e.g.
// "tank/home". A bare pool name is also a valid DatasetName (the pool's
// root dataset).
type DatasetName string

func (dn DatasetName) String() string {
	return string(dn)
}

func (dn DatasetName) Path() string {
	return string(dn)
}

// Pair couples a source dataset with the backup-side dataset it syncs to.
type Pair struct {
	Source DatasetName
	Backup DatasetName
}

func (p Pair) String() string {
	return p.Source.String() + " -> " + p.Backup.String()
}
