package device

import (
	"encoding/json"
	"time"
)

// ConditionStatus is a tri-state observation. ConditionUnset is distinct
// from both True and False: it means "no explicit change was requested
// to this field," the decision taken for the provisioning-event branch
// where the source record leaves status unset when no error is present
// (see the Provisioning condition name below).
type ConditionStatus string

const (
	ConditionTrue   ConditionStatus = "True"
	ConditionFalse  ConditionStatus = "False"
	ConditionUnset  ConditionStatus = ""
)

// Condition names the core state machine uses.
const (
	Provisioning = "Provisioning"
	Provisioned  = "Provisioned"
)

// Condition is one entry of a device's observed-state condition set.
type Condition struct {
	Type               string          `json:"type"`
	Status             ConditionStatus `json:"status"`
	Reason             string          `json:"reason,omitempty"`
	Message            string          `json:"message,omitempty"`
	LastTransitionTime time.Time       `json:"lastTransitionTime,omitempty"`
}

// ConditionSet is an ordered mapping from condition name to Condition,
// insertion order preserved so two sets built the same way compare
// equal field-for-field, not just as sets.
type ConditionSet struct {
	order []string
	byType map[string]Condition
}

// NewConditionSet returns an empty set.
func NewConditionSet() ConditionSet {
	return ConditionSet{byType: map[string]Condition{}}
}

// Get returns the named condition and whether it is present.
func (c ConditionSet) Get(name string) (Condition, bool) {
	cond, ok := c.byType[name]
	return cond, ok
}

// Len reports the number of distinct condition types set.
func (c ConditionSet) Len() int {
	return len(c.order)
}

// All returns the conditions in insertion order.
func (c ConditionSet) All() []Condition {
	out := make([]Condition, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byType[name])
	}
	return out
}

func (c *ConditionSet) ensureInit() {
	if c.byType == nil {
		c.byType = map[string]Condition{}
	}
}

func (c *ConditionSet) insertOrder(name string) {
	if _, ok := c.byType[name]; !ok {
		c.order = append(c.order, name)
	}
}

// SetBool applies the boolean update shape: clears reason/message and
// stamps the transition time only when the status actually changes.
func (c *ConditionSet) SetBool(name string, value bool, now time.Time) {
	c.ensureInit()
	status := ConditionFalse
	if value {
		status = ConditionTrue
	}
	prev, existed := c.byType[name]
	transition := now
	if existed && prev.Status == status {
		transition = prev.LastTransitionTime
	}
	c.insertOrder(name)
	c.byType[name] = Condition{
		Type:               name,
		Status:             status,
		LastTransitionTime: transition,
	}
}

// SetRecord applies the full structured update shape: reason and
// message are always overwritten; the transition time is stamped only
// when status changes. A ConditionUnset status leaves the prior status
// value untouched (the "no explicit change to Status" reading of the
// source's None case) while still overwriting reason/message.
func (c *ConditionSet) SetRecord(name string, status ConditionStatus, reason, message string, now time.Time) {
	c.ensureInit()
	prev, existed := c.byType[name]

	effective := status
	if status == ConditionUnset && existed {
		effective = prev.Status
	}

	transition := now
	if existed && prev.Status == effective {
		transition = prev.LastTransitionTime
	}

	c.insertOrder(name)
	c.byType[name] = Condition{
		Type:               name,
		Status:             effective,
		Reason:             reason,
		Message:            message,
		LastTransitionTime: transition,
	}
}

// MarshalJSON encodes the set as an ordered array, the wire shape for
// status.btmesh.conditions.
func (c ConditionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.All())
}

// UnmarshalJSON decodes an ordered array of conditions, rebuilding
// insertion order from array order. A condition set round-tripped
// through JSON compares Equal to the set that produced it.
func (c *ConditionSet) UnmarshalJSON(data []byte) error {
	var list []Condition
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	c.order = nil
	c.byType = make(map[string]Condition, len(list))
	for _, cond := range list {
		c.order = append(c.order, cond.Type)
		c.byType[cond.Type] = cond
	}
	return nil
}

// Equal reports whether two sets carry the same conditions in the same
// order, including reasons, messages, and transition times (compared
// as instants, so location and monotonic-clock data do not matter).
// Used by the persist rule's status-diff check and by idempotence tests.
func (c ConditionSet) Equal(other ConditionSet) bool {
	if len(c.order) != len(other.order) {
		return false
	}
	for i, name := range c.order {
		if other.order[i] != name {
			return false
		}
		a, b := c.byType[name], other.byType[name]
		if a.Type != b.Type || a.Status != b.Status || a.Reason != b.Reason || a.Message != b.Message ||
			!a.LastTransitionTime.Equal(b.LastTransitionTime) {
			return false
		}
	}
	return true
}
