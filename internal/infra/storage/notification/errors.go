package notification

import "errors"

var (
	// ErrNotificationNotFound возвращается, когда строка outbox не найдена
	ErrNotificationNotFound = errors.New("notification.repository: notification not found")

	// ErrTransactionRequired возвращается, когда выборка с блокировкой вызвана вне транзакции
	ErrTransactionRequired = errors.New("notification.repository: transaction required")

	ErrBuildQuery = errors.New("notification.repository: failed to build query")
	ErrExecQuery  = errors.New("notification.repository: failed to execute query")
	ErrScanRow    = errors.New("notification.repository: failed to scan row")
	ErrPayload    = errors.New("notification.repository: invalid payload")
)
