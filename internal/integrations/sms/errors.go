package sms

import "errors"

var (
	// ErrSendFailed возвращается, когда провайдер отклонил сообщение или недоступен
	ErrSendFailed = errors.New("sms client: send failed")

	// ErrInvalidRecipient возвращается при пустом номере получателя
	ErrInvalidRecipient = errors.New("sms client: invalid recipient")

	// ErrUnknownKind возвращается для неизвестного типа уведомления
	ErrUnknownKind = errors.New("sms client: unknown notification kind")
)
