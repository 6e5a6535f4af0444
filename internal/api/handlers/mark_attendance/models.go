package mark_attendance

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// MarkAttendanceRequest HTTP request model
// null очищает отметку
type MarkAttendanceRequest struct {
	AttendanceStatus *string `json:"attendanceStatus" validate:"omitempty,oneof=arrived no_show"`
}

// ToDomain конвертирует значение в domain тип
func (r *MarkAttendanceRequest) ToDomain() *domain.AttendanceStatus {
	if r.AttendanceStatus == nil {
		return nil
	}
	status := domain.AttendanceStatus(*r.AttendanceStatus)
	return &status
}
