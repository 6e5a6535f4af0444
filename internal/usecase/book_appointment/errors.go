package book_appointment

import "errors"

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("book_appointment: service not found")

	// ErrSlotTaken возвращается, когда интервал пересекается с существующей записью
	ErrSlotTaken = errors.New("book_appointment: time slot is already taken")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("book_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("book_appointment: internal error")
)
