package get_availability

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// computeSlots вычисляет свободные слоты на день
// Сетка фиксированная: от начала рабочего дня с шагом durationMin, независимо от того, принят ли кандидат
// Кандидат [t, t+durationMin) принимается, если не выходит за конец рабочего дня
// и не пересекается ни с одной неотмененной записью (полуоткрытые интервалы)
func computeSlots(
	day time.Time,
	durationMin int,
	settings *domain.Settings,
	appointments []*domain.Appointment,
	loc *time.Location,
) []time.Time {
	slots := make([]time.Time, 0)

	if durationMin <= 0 {
		return slots
	}

	window := settings.WorkingWindow(day, loc)
	if window.IsEmpty() {
		return slots
	}

	step := time.Duration(durationMin) * time.Minute

	for t := window.Start; t.Before(window.End); t = t.Add(step) {
		candidate := domain.NewInterval(t, step)

		// Последний слот не может выходить за время закрытия
		if !candidate.Within(window) {
			break
		}

		if isTaken(candidate, appointments) {
			continue
		}

		slots = append(slots, t.UTC())
	}

	return slots
}

// isTaken проверяет пересечение кандидата с занятыми интервалами
// Граничащие интервалы (конец записи == начало слота) пересечением не считаются
func isTaken(candidate domain.Interval, appointments []*domain.Appointment) bool {
	for _, a := range appointments {
		if !a.Occupies() {
			continue
		}
		if a.Interval().Overlaps(candidate) {
			return true
		}
	}
	return false
}
