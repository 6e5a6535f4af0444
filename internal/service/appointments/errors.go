package appointments

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")

	// ErrAccessDenied возвращается, когда клиент пытается изменить чужую запись
	ErrAccessDenied = errors.New("appointments: access denied")

	// ErrCannotCancel возвращается, когда запись в статусе, не допускающем отмену
	ErrCannotCancel = errors.New("appointments: appointment cannot be cancelled")

	// ErrBlockedSlot возвращается при попытке применить к блокировке операцию клиентской записи
	ErrBlockedSlot = errors.New("appointments: operation not allowed for blocked slot")

	// ErrNotBlocked возвращается при попытке снять блокировку с обычной записи
	ErrNotBlocked = errors.New("appointments: appointment is not a blocked slot")

	// ErrSlotOverlap возвращается, когда блокировка пересекается с записью (политика reject)
	ErrSlotOverlap = errors.New("appointments: slot overlaps an existing appointment")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("appointments: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("appointments: internal error")
)
