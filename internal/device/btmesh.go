package device

// BtmeshSpec is the decoded shape of spec.btmesh: the desired-state
// section naming the physical BT-Mesh node to provision.
type BtmeshSpec struct {
	Device string `json:"device"`
}

// BtmeshStatus is the decoded shape of status.btmesh: the observed
// address (if provisioned) and the condition set.
type BtmeshStatus struct {
	Address    *uint16      `json:"address,omitempty"`
	Conditions ConditionSet `json:"conditions"`
}

// BtmeshSpec returns the device's spec.btmesh section, and whether it is
// present. Devices without this section are not managed by the
// reconciler (§4.E step 3).
func (d *Device) BtmeshSpec() (BtmeshSpec, bool) {
	return GetSection[BtmeshSpec](d.Spec, "btmesh")
}

// BtmeshStatus returns the device's status.btmesh section, defaulting to the
// empty value `{address: None, conditions: empty}` when absent, per
// §4.E's "load or default" rule.
func (d *Device) BtmeshStatus() BtmeshStatus {
	st, ok := GetSection[BtmeshStatus](d.Status, "btmesh")
	if !ok {
		return BtmeshStatus{Conditions: NewConditionSet()}
	}
	if st.Conditions.byType == nil {
		st.Conditions = NewConditionSet()
	}
	return st
}

// SetBtmeshStatus writes status.btmesh.
func (d *Device) SetBtmeshStatus(st BtmeshStatus) {
	SetSection(&d.Status, "btmesh", st)
}
