package main

import "errors"

// The failure classes a run can produce. Enumeration failures abort the
// whole run; everything else is isolated to its dataset and summarized at
// the end. Verification mismatches and unavailable diffs are reported but
// never fail the run.
var (
	ErrEnumeration    = errors.New("pool enumeration failed")
	ErrLineage        = errors.New("snapshot lineage broken")
	ErrTransfer       = errors.New("snapshot transfer failed")
	ErrVerifyMismatch = errors.New("backup verification mismatch")
	ErrDiff           = errors.New("backup diff unavailable")
)
