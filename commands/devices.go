package commands

import (
	"context"

	"github.com/groundupworks/yksp/devices"
	"github.com/groundupworks/yksp/utils"
)

// DeviceInfo describes one entry of `adb devices`.
type DeviceInfo struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	Type         string `json:"type"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	SDK          string `json:"sdk,omitempty"`
	Release      string `json:"release,omitempty"`
}

// DevicesCommand lists connected devices, offline ones only when showAll is set
func DevicesCommand(ctx context.Context, showAll bool) *CommandResponse {
	b := GetBridge()
	entries, err := b.Devices(ctx)
	if err != nil {
		return NewErrorResponse(err)
	}

	list := []DeviceInfo{}
	for _, e := range entries {
		if !e.Online() && !showAll {
			continue
		}

		d := b.Device(e.Serial)
		info := DeviceInfo{ID: e.Serial, State: e.State, Type: d.DeviceType()}
		if e.Online() {
			props, err := d.Properties(ctx)
			if err != nil {
				utils.Verbose("Failed to read properties of %s: %v", e.Serial, err)
			} else {
				info.Manufacturer = props.Get(devices.PropManufacturer)
				info.Model = props.Get(devices.PropModel)
				info.SDK = props.Get(devices.PropSDK)
				info.Release = props.Get(devices.PropRelease)
			}
		}
		list = append(list, info)
	}

	return NewSuccessResponse(map[string]interface{}{
		"devices": list,
	})
}
