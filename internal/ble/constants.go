package ble

const (
	// ServiceUUID is the mat hub's UART-style primary service
	ServiceUUID = "0000ffe0-0000-1000-8000-00805f9b34fb"

	// CharacteristicUUID is the control characteristic (write without response, notify)
	CharacteristicUUID = "0000ffe1-0000-1000-8000-00805f9b34fb"

	// NamePrefix is prepended to the user's code in the advertised name
	NamePrefix = "SL-"
)
