package send_reminders

import "errors"

var (
	// ErrAlreadyRunning возвращается, когда другой экземпляр уже выполняет рассылку
	ErrAlreadyRunning = errors.New("send_reminders: another run is in progress")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("send_reminders: internal error")
)
