package types

// BatterySOC holds the minimum state of charge settings of a battery.
type BatterySOC struct {
	MinSOC       int `json:"minSoc"`
	MinSOCOnGrid int `json:"minSocOnGrid"`
}

// SchedulerFlag reports whether the device supports and has enabled the
// work mode scheduler.
type SchedulerFlag struct {
	Enable  bool `json:"enable"`
	Support bool `json:"support"`
}

// ScheduleGroup is one time period of a schedule.
type ScheduleGroup struct {
	Enable       int    `json:"enable"`
	StartHour    int    `json:"startHour"`
	StartMinute  int    `json:"startMinute"`
	EndHour      int    `json:"endHour"`
	EndMinute    int    `json:"endMinute"`
	WorkMode     string `json:"workMode"`
	MinSOCOnGrid int    `json:"minSocOnGrid"`
	FDSOC        int    `json:"fdSoc"`
	FDPower      int    `json:"fdPwr"`
}

// Schedule is the work mode schedule of a device.
type Schedule struct {
	Enable int             `json:"enable"`
	Groups []ScheduleGroup `json:"groups"`
}
