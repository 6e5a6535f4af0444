package domain

// SettingsID fixed key of the singleton settings row
const SettingsID = "default"

// Default settings values
const (
	DefaultWorkStartHour      = 9
	DefaultWorkEndHour        = 17
	DefaultSMSReminderMinutes = 60
)

// Business validation constants
const (
	MinWorkHour               = 0
	MaxWorkHour               = 23
	MinSMSReminderMinutes     = 15
	MaxSMSReminderMinutes     = 1440 // 24 hours
	MinServiceDurationMinutes = 5
	MaxServiceDurationMinutes = 480 // 8 hours
	MaxBlockDurationMinutes   = 1440
	MaxTitleLength            = 200
	MaxGuestNameLength        = 200
	MaxBlockReasonLength      = 500
)

// ReminderWindowMinutes half-width of the window around now+smsReminderMinutes
const ReminderWindowMinutes = 15

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
