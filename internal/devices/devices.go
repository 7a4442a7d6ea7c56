// Package devices models the smart home device directory: the devices and
// scenes of a space, the codebook describing product-type control codes,
// and fuzzy name matching for clarification suggestions.
package devices

import (
	"fmt"
	"strings"
)

// Device is one entry of the space's device directory.
type Device struct {
	UUID         string   `json:"uuid"`
	Name         string   `json:"name"`
	ProductType  string   `json:"product_type"`
	CategoryName string   `json:"category_name,omitempty"`
	Subspace     Subspace `json:"subspace,omitzero"`
	Tag          string   `json:"tag,omitempty"`
}

// Subspace is the room or zone a device belongs to. A zero value means the
// device is not assigned to one.
type Subspace struct {
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name,omitempty"`
}

// Function is one controllable function of a device as reported by the
// backend.
type Function struct {
	Code   string `json:"code"`
	Values any    `json:"values,omitempty"`
}

// Scene is a tap-to-run scene available in the space.
type Scene struct {
	UUID string `json:"scene_uuid"`
	Name string `json:"scene_name"`
}

// Status is a device's current function readings.
type Status struct {
	DeviceUUID string         `json:"device_uuid"`
	Readings   map[string]any `json:"readings"`
}

// Listing renders the directory in the compact form embedded into the
// classification prompt.
func Listing(devs []Device) []map[string]string {
	out := make([]map[string]string, 0, len(devs))
	for _, d := range devs {
		entry := map[string]string{
			"uuid":         d.UUID,
			"name":         d.Name,
			"product_type": d.ProductType,
		}
		if d.Subspace.Name != "" {
			entry["subspace"] = d.Subspace.Name
		}
		if d.Tag != "" {
			entry["tag"] = d.Tag
		}
		out = append(out, entry)
	}
	return out
}

// ByUUID returns the directory entry with the given UUID, if present.
func ByUUID(devs []Device, uuid string) (Device, bool) {
	for _, d := range devs {
		if d.UUID == uuid {
			return d, true
		}
	}
	return Device{}, false
}

// DescribeFunctions renders a device's functions for prompt embedding.
func DescribeFunctions(fns []Function) string {
	var b strings.Builder
	for i, fn := range fns {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "code=%s values=%v", fn.Code, fn.Values)
	}
	return b.String()
}
