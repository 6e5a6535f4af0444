package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// UpdateSettingsRequest частичное обновление настроек (nil - не менять)
type UpdateSettingsRequest struct {
	WorkStartHour      *int
	WorkEndHour        *int
	SMSReminderMinutes *int
}

// SettingsResponse ответ с настройками календаря
type SettingsResponse struct {
	WorkStartHour      int       `json:"workStartHour"`
	WorkEndHour        int       `json:"workEndHour"`
	BlackoutDates      []string  `json:"blackoutDates"`
	SMSReminderMinutes int       `json:"smsReminderMinutes"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// FromDomainSettings конвертирует domain модель в DTO
func FromDomainSettings(s *domain.Settings) *SettingsResponse {
	if s == nil {
		return nil
	}

	dates := s.BlackoutDates
	if dates == nil {
		dates = []string{}
	}

	return &SettingsResponse{
		WorkStartHour:      s.WorkStartHour,
		WorkEndHour:        s.WorkEndHour,
		BlackoutDates:      dates,
		SMSReminderMinutes: s.SMSReminderMinutes,
		UpdatedAt:          s.UpdatedAt,
	}
}
