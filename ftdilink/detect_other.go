//go:build !windows

package ftdilink

import (
	"fmt"

	"github.com/google/gousb"
)

// IsBridgeConnected reports whether an FTDI bridge (VID 0x0403, one of the
// known UART product IDs) is present, and returns a DeviceInfo per match.
// Enumeration goes through libusb; devices are opened only long enough to
// read their descriptors.
func IsBridgeConnected() (bool, []DeviceInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var infos []DeviceInfo
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if desc.Vendor != gousb.ID(ftdiVendorID) {
			return false
		}
		for _, pid := range bridgeProductIDs {
			if desc.Product == pid {
				return true
			}
		}
		return false
	})
	for _, d := range devs {
		info := DeviceInfo{
			DevicePath: fmt.Sprintf("%d:%d", d.Desc.Bus, d.Desc.Address),
		}
		if product, perr := d.Product(); perr == nil {
			info.FriendlyName = product
		}
		infos = append(infos, info)
		d.Close()
	}
	if err != nil && len(infos) == 0 {
		return false, nil, fmt.Errorf("enumerating USB devices: %w", err)
	}
	return len(infos) > 0, infos, nil
}
