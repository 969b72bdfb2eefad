package types

// DeviceFunction lists optional capabilities reported for a device.
type DeviceFunction struct {
	Scheduler bool `json:"scheduler"`
}

// Device is an inverter as returned by the device list.
type Device struct {
	DeviceSN    string         `json:"deviceSN"`
	ModuleSN    string         `json:"moduleSN"`
	StationID   string         `json:"stationID"`
	StationName string         `json:"stationName"`
	ProductType string         `json:"productType"`
	DeviceType  string         `json:"deviceType"`
	HasBattery  bool           `json:"hasBattery"`
	HasPV       bool           `json:"hasPV"`
	Status      int            `json:"status"`
	Function    DeviceFunction `json:"function"`
}

// DeviceDetail is the detailed view of a single inverter.
type DeviceDetail struct {
	Device

	MasterVersion   string  `json:"masterVersion"`
	SlaveVersion    string  `json:"slaveVersion"`
	ManagerVersion  string  `json:"managerVersion"`
	HardwareVersion string  `json:"hardwareVersion"`
	CapacityKW      float64 `json:"capacity"`
}

// DeviceListPage is one page of the device list.
type DeviceListPage struct {
	CurrentPage int      `json:"currentPage"`
	PageSize    int      `json:"pageSize"`
	Total       int      `json:"total"`
	Data        []Device `json:"data"`
}
