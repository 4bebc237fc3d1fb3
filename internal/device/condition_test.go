package device

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionSetSetBoolStampsTransitionOnlyOnChange(t *testing.T) {
	cs := NewConditionSet()
	t1 := time.Unix(100, 0)
	cs.SetBool(Provisioning, true, t1)

	cond, ok := cs.Get(Provisioning)
	require.True(t, ok)
	assert.Equal(t, ConditionTrue, cond.Status)
	assert.Equal(t, t1, cond.LastTransitionTime)
	assert.Empty(t, cond.Reason)
	assert.Empty(t, cond.Message)

	t2 := time.Unix(200, 0)
	cs.SetBool(Provisioning, true, t2)
	cond, _ = cs.Get(Provisioning)
	assert.Equal(t, t1, cond.LastTransitionTime, "status unchanged, transition time must not move")

	t3 := time.Unix(300, 0)
	cs.SetBool(Provisioning, false, t3)
	cond, _ = cs.Get(Provisioning)
	assert.Equal(t, ConditionFalse, cond.Status)
	assert.Equal(t, t3, cond.LastTransitionTime)
}

func TestConditionSetSetBoolClearsReasonMessage(t *testing.T) {
	cs := NewConditionSet()
	now := time.Unix(1, 0)
	cs.SetRecord(Provisioned, ConditionTrue, "Error resetting device", "nack", now)
	cs.SetBool(Provisioned, true, now)

	cond, _ := cs.Get(Provisioned)
	assert.Empty(t, cond.Reason)
	assert.Empty(t, cond.Message)
}

func TestConditionSetSetRecordUnsetPreservesPriorStatus(t *testing.T) {
	cs := NewConditionSet()
	now := time.Unix(1, 0)
	cs.SetRecord(Provisioned, ConditionTrue, "", "", now)

	later := time.Unix(2, 0)
	cs.SetRecord(Provisioned, ConditionUnset, "", "", later)

	cond, ok := cs.Get(Provisioned)
	require.True(t, ok)
	assert.Equal(t, ConditionTrue, cond.Status, "Unset must not clear a previously-set status")
	assert.Equal(t, now, cond.LastTransitionTime, "status unchanged by Unset, transition time must not move")
}

func TestConditionSetSetRecordUnsetWithNoPriorLeavesUnset(t *testing.T) {
	cs := NewConditionSet()
	now := time.Unix(1, 0)
	cs.SetRecord(Provisioned, ConditionUnset, "", "", now)

	cond, ok := cs.Get(Provisioned)
	require.True(t, ok)
	assert.Equal(t, ConditionUnset, cond.Status)
}

func TestConditionSetSetRecordAlwaysOverwritesReasonMessage(t *testing.T) {
	cs := NewConditionSet()
	now := time.Unix(1, 0)
	cs.SetRecord(Provisioned, ConditionTrue, "Error resetting device", "nack", now)
	cs.SetRecord(Provisioned, ConditionTrue, "", "", now)

	cond, _ := cs.Get(Provisioned)
	assert.Empty(t, cond.Reason)
	assert.Empty(t, cond.Message)
}

func TestConditionSetPreservesInsertionOrder(t *testing.T) {
	cs := NewConditionSet()
	now := time.Unix(1, 0)
	cs.SetBool(Provisioning, true, now)
	cs.SetBool(Provisioned, false, now)
	cs.SetBool(Provisioning, false, now)

	all := cs.All()
	require.Len(t, all, 2)
	assert.Equal(t, Provisioning, all[0].Type)
	assert.Equal(t, Provisioned, all[1].Type)
}

func TestConditionSetEqual(t *testing.T) {
	now := time.Unix(1, 0)
	a := NewConditionSet()
	a.SetBool(Provisioning, true, now)
	b := NewConditionSet()
	b.SetBool(Provisioning, true, now)

	assert.True(t, a.Equal(b))

	b.SetBool(Provisioned, true, now)
	assert.False(t, a.Equal(b))
}

func TestConditionSetJSONRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	cs := NewConditionSet()
	cs.SetBool(Provisioning, true, now)
	cs.SetRecord(Provisioned, ConditionFalse, "", "", now)

	raw, err := json.Marshal(cs)
	require.NoError(t, err)

	var out ConditionSet
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, cs.Equal(out))
}

func TestConditionSetAppliedTwiceIsIdempotent(t *testing.T) {
	now := time.Unix(1, 0)
	apply := func() ConditionSet {
		cs := NewConditionSet()
		cs.SetBool(Provisioned, false, now)
		cs.SetBool(Provisioning, false, now)
		cs.SetRecord(Provisioned, ConditionTrue, "Error resetting device", "nack", now)
		cs.SetBool(Provisioning, false, now)
		return cs
	}

	once := apply()
	twice := apply()
	assert.True(t, once.Equal(twice))
}
