package ftdilink

// DeviceInfo contains key metadata for a detected FTDI bridge.
//
// Fields may be empty if not available on the current system.
type DeviceInfo struct {
	// DevicePath is a system-specific locator for the device, e.g. a
	// Windows device interface path or a "bus:address" pair elsewhere.
	DevicePath string
	// HardwareIDs is the list of hardware IDs from the registry on
	// Windows, e.g. ["USB\\VID_0403&PID_6001", ...].
	HardwareIDs []string
	// FriendlyName is a human-friendly device label if present.
	FriendlyName string
}
