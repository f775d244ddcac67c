package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snaplist(names ...string) *Snapshots {
	snaps := NewSnapshots()
	for i, name := range names {
		snaps.Add(&Snapshot{Dataset: "tank", Name: name, CreatedAt: int64(i + 1)})
	}
	return snaps
}

func TestResolve_FullWhenBackupEmpty(t *testing.T) {
	plan, err := Resolve(snaplist("s1"), NewSnapshots())
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, PlanFull, plan.Kind)
	assert.Equal(t, "s1", plan.Initial.Name)
	assert.Equal(t, "s1", plan.Target.Name)
}

func TestResolve_FullCoversWholeHistory(t *testing.T) {
	plan, err := Resolve(snaplist("s1", "s2", "s3"), NewSnapshots())
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, PlanFull, plan.Kind)
	assert.Equal(t, "s1", plan.Initial.Name)
	assert.Equal(t, "s3", plan.Target.Name)

	phases := plan.Phases()
	require.Len(t, phases, 2)
	assert.Equal(t, "", phases[0].BaseName)
	assert.Equal(t, "s1", phases[0].Target.Name)
	assert.Equal(t, "s1", phases[1].BaseName)
	assert.Equal(t, "s3", phases[1].Target.Name)
}

func TestResolve_Incremental(t *testing.T) {
	plan, err := Resolve(snaplist("s1", "s2", "s3"), snaplist("s1", "s2"))
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, PlanIncremental, plan.Kind)
	assert.Equal(t, "s2", plan.Base.Name)
	assert.Equal(t, "s3", plan.Target.Name)

	phases := plan.Phases()
	require.Len(t, phases, 1)
	assert.Equal(t, "s2", phases[0].BaseName)
	assert.Equal(t, "s3", phases[0].Target.Name)
}

func TestResolve_BaseIsNewestShared(t *testing.T) {
	// Backup holds a stale subset; the base must be the newest shared
	// snapshot, never an older one.
	source := snaplist("s1", "s2", "s3", "s4", "s5")
	backup := snaplist("s1", "s2", "s3")

	plan, err := Resolve(source, backup)
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, PlanIncremental, plan.Kind)
	assert.Equal(t, "s3", plan.Base.Name)
	assert.Equal(t, "s5", plan.Target.Name)
}

func TestResolve_UpToDate(t *testing.T) {
	plan, err := Resolve(snaplist("s1", "s2"), snaplist("s1", "s2"))
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestResolve_BrokenLineage(t *testing.T) {
	plan, err := Resolve(snaplist("s1", "s2"), snaplist("x"))
	assert.Nil(t, plan)
	require.ErrorIs(t, err, ErrNoLineage)
}

func TestResolve_NoSourceSnapshots(t *testing.T) {
	plan, err := Resolve(NewSnapshots(), NewSnapshots())
	assert.Nil(t, plan)
	assert.Error(t, err)
}

func TestResolve_Deterministic(t *testing.T) {
	source := snaplist("s1", "s2", "s3")
	backup := snaplist("s1", "s2")

	first, err := Resolve(source, backup)
	require.NoError(t, err)
	second, err := Resolve(source, backup)
	require.NoError(t, err)

	assert.Equal(t, first.Kind, second.Kind)
	assert.Equal(t, first.Base.Name, second.Base.Name)
	assert.Equal(t, first.Target.Name, second.Target.Name)

	// Resolution reads the lists without mutating them.
	assert.Equal(t, 3, source.Len())
	assert.Equal(t, 2, backup.Len())
}
