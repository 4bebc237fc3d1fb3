// Package wire defines the JSON shapes exchanged with gateways over the
// bus: commands the operator sends, and the device-state events it
// receives back. Field names and the lowercase tag discriminators match
// the BT-Mesh command/event contract the gateways speak.
package wire

import (
	"fmt"
	"strings"
)

// Command is the envelope published to a gateway's command topic.
type Command struct {
	Command Op `json:"command"`
}

// Op is a tagged union of the two gateway operations. Exactly one field
// is populated; JSON marshaling relies on omitempty to produce the
// single-key {"provision": {...}} / {"reset": {...}} shape.
type Op struct {
	Provision *ProvisionOp `json:"provision,omitempty"`
	Reset     *ResetOp     `json:"reset,omitempty"`
}

// ProvisionOp asks a gateway to admit a BT-Mesh node into the mesh.
type ProvisionOp struct {
	Device string `json:"device"`
}

// ResetOp asks a gateway to remove a node from the mesh.
type ResetOp struct {
	Device  string `json:"device"`
	Address uint16 `json:"address"`
}

// ProvisionCommand builds the command for §4.D's "provision" fan-out.
func ProvisionCommand(device string) Command {
	return Command{Command: Op{Provision: &ProvisionOp{Device: device}}}
}

// ResetCommand builds the command for §4.D's "reset" fan-out.
func ResetCommand(device string, address uint16) Command {
	return Command{Command: Op{Reset: &ResetOp{Device: device, Address: address}}}
}

// Event is the envelope carried as CloudEvents data on the "btmesh"
// subject: a gateway reporting a state transition for one device.
type Event struct {
	Status DeviceState `json:"status"`
}

// DeviceState is a tagged union over the three gateway-reported
// transitions. Exactly one field is populated.
type DeviceState struct {
	Provisioning *ProvisioningState `json:"provisioning,omitempty"`
	Provisioned  *ProvisionedState  `json:"provisioned,omitempty"`
	Reset        *ResetState        `json:"reset,omitempty"`
}

// ProvisioningState reports that a gateway is attempting (or failed to
// attempt) provisioning of the device.
type ProvisioningState struct {
	Device string  `json:"device"`
	Error  *string `json:"error,omitempty"`
}

// ProvisionedState reports a successful provisioning with the assigned
// 16-bit unicast address.
type ProvisionedState struct {
	Device  string `json:"device"`
	Address uint16 `json:"address"`
}

// ResetState reports the outcome of a reset (unprovision) attempt.
type ResetState struct {
	Device string  `json:"device"`
	Error  *string `json:"error,omitempty"`
}

// Device returns the device identifier carried by whichever variant is
// populated, or "" if none is.
func (s DeviceState) Device() string {
	switch {
	case s.Provisioning != nil:
		return s.Provisioning.Device
	case s.Provisioned != nil:
		return s.Provisioned.Device
	case s.Reset != nil:
		return s.Reset.Device
	default:
		return ""
	}
}

// CanonicalUUID is a literal case-fold of a BT-Mesh device UUID, nothing
// more: the wire contract defines the alias as lowercase(spec.btmesh.device),
// not a reparsed/reformatted UUID, so no other input form is normalized.
func CanonicalUUID(raw string) string {
	return strings.ToLower(raw)
}

// AddressAlias returns the two-byte big-endian hex alias of a mesh
// unicast address, e.g. 0x1234 -> "1234".
func AddressAlias(address uint16) string {
	return fmt.Sprintf("%02x%02x", byte(address>>8), byte(address))
}
