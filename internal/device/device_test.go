package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestGetSetSectionRoundTrip(t *testing.T) {
	var sections Sections
	SetSection(&sections, "btmesh", BtmeshSpec{Device: "ab12cd"})

	got, ok := GetSection[BtmeshSpec](sections, "btmesh")
	require.True(t, ok)
	assert.Equal(t, "ab12cd", got.Device)
}

func TestGetSectionAbsentIsNotOK(t *testing.T) {
	sections := Sections{}
	_, ok := GetSection[BtmeshSpec](sections, "btmesh")
	assert.False(t, ok)
}

func TestGetSectionSchemaMismatchIsAbsent(t *testing.T) {
	sections := Sections{}
	SetSection(&sections, "btmesh", []int{1, 2, 3})

	_, ok := GetSection[BtmeshSpec](sections, "btmesh")
	assert.False(t, ok, "schema mismatch must read as absent, not error")
}

func TestEnsureFinalizerAddsOnce(t *testing.T) {
	d := &Device{}
	assert.True(t, EnsureFinalizer(d, OperatorFinalizer))
	assert.False(t, EnsureFinalizer(d, OperatorFinalizer))
	assert.Equal(t, []string{OperatorFinalizer}, d.Finalizers)
}

func TestRemoveFinalizer(t *testing.T) {
	d := &Device{ObjectMeta: metav1.ObjectMeta{Finalizers: []string{OperatorFinalizer, "other"}}}
	assert.True(t, RemoveFinalizer(d, OperatorFinalizer))
	assert.Equal(t, []string{"other"}, d.Finalizers)
	assert.False(t, RemoveFinalizer(d, OperatorFinalizer))
}

func TestEnsureAliasAppendsAndDedupes(t *testing.T) {
	d := &Device{}
	assert.True(t, EnsureAlias(d, "ab12cd"))
	assert.False(t, EnsureAlias(d, "ab12cd"))
	assert.True(t, EnsureAlias(d, "1234"))

	aliases, ok := GetSection[aliasSection](d.Spec, "alias")
	require.True(t, ok)
	assert.Equal(t, aliasSection{"ab12cd", "1234"}, aliases)
}

func TestBtmeshStatusDefaultsWhenAbsent(t *testing.T) {
	d := &Device{}
	st := d.BtmeshStatus()
	assert.Nil(t, st.Address)
	assert.Equal(t, 0, st.Conditions.Len())
}

func TestBtmeshStatusRoundTrip(t *testing.T) {
	d := &Device{}
	addr := uint16(0x1234)
	cs := NewConditionSet()
	cs.SetBool(Provisioned, true, time.Unix(1, 0))
	d.SetBtmeshStatus(BtmeshStatus{Address: &addr, Conditions: cs})

	got := d.BtmeshStatus()
	require.NotNil(t, got.Address)
	assert.Equal(t, addr, *got.Address)
	assert.True(t, cs.Equal(got.Conditions))
}

func TestIsGateway(t *testing.T) {
	d := &Device{ObjectMeta: metav1.ObjectMeta{Labels: map[string]string{"role": "gateway"}}}
	assert.True(t, d.IsGateway())

	other := &Device{ObjectMeta: metav1.ObjectMeta{Labels: map[string]string{"role": "sensor"}}}
	assert.False(t, other.IsGateway())
}

func TestIsTerminating(t *testing.T) {
	d := &Device{}
	assert.False(t, d.IsTerminating())

	ts := metav1.Now()
	d.DeletionTimestamp = &ts
	assert.True(t, d.IsTerminating())
}
