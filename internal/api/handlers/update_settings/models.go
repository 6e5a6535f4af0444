package update_settings

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/settings/models"
)

// UpdateSettingsRequest HTTP request model, отсутствующие поля не меняются
type UpdateSettingsRequest struct {
	WorkStartHour      *int `json:"workStartHour,omitempty"`
	WorkEndHour        *int `json:"workEndHour,omitempty"`
	SMSReminderMinutes *int `json:"smsReminderMinutes,omitempty"`
}

func (r *UpdateSettingsRequest) ToServiceRequest() *models.UpdateSettingsRequest {
	return &models.UpdateSettingsRequest{
		WorkStartHour:      r.WorkStartHour,
		WorkEndHour:        r.WorkEndHour,
		SMSReminderMinutes: r.SMSReminderMinutes,
	}
}
