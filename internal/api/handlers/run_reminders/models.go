package run_reminders

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/usecase/send_reminders"
)

// RunRemindersResponse HTTP response model
type RunRemindersResponse struct {
	ReminderMinutes int       `json:"reminderMinutes"`
	WindowStart     time.Time `json:"windowStart"`
	WindowEnd       time.Time `json:"windowEnd"`
	Processed       int       `json:"processed"`
	Enqueued        int       `json:"enqueued"`
}

func FromUseCaseResponse(resp *send_reminders.Response) *RunRemindersResponse {
	return &RunRemindersResponse{
		ReminderMinutes: resp.ReminderMinutes,
		WindowStart:     resp.WindowStart,
		WindowEnd:       resp.WindowEnd,
		Processed:       resp.Processed,
		Enqueued:        resp.Enqueued,
	}
}
