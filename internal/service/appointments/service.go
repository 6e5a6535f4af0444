package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

// Service сервис управления записями: просмотр, отмена, посещаемость, блокировки
type Service struct {
	repo               AppointmentRepository
	txManager          TransactionManager
	location           *time.Location
	rejectBlockOverlap bool
	logger             Logger
}

// NewService создает новый экземпляр сервиса записей
// rejectBlockOverlap: если true, блокировка не может пересекаться с существующими записями
func NewService(
	repo AppointmentRepository,
	txManager TransactionManager,
	location *time.Location,
	rejectBlockOverlap bool,
	logger Logger,
) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		repo:               repo,
		txManager:          txManager,
		location:           location,
		rejectBlockOverlap: rejectBlockOverlap,
		logger:             logger,
	}
}

// GetByID получает запись по ID с проверкой прав доступа
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, caller models.Caller) (*models.AppointmentResponse, error) {
	a, err := s.get(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin && !a.IsOwnedBy(caller.Phone) {
		s.logger.Warn("GetByID: access denied to appointment id=%s", id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainAppointment(a), nil
}

// List получает записи для администратора, по возрастанию времени начала
func (s *Service) List(ctx context.Context, req *models.ListAppointmentsRequest) (*models.AppointmentListResponse, error) {
	if req.From != nil && req.To != nil && !req.From.Before(*req.To) {
		return nil, fmt.Errorf("%w: from must be before to", ErrInvalidInput)
	}

	list, err := s.repo.List(ctx, req.ToDomainFilter())
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: fetched %d appointments", len(list))
	return models.FromDomainAppointmentList(list), nil
}

// ListByPhone получает записи клиента по подтвержденному телефону
func (s *Service) ListByPhone(ctx context.Context, phone string) (*models.AppointmentListResponse, error) {
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrInvalidInput)
	}

	list, err := s.repo.ListByPhone(ctx, phone)
	if err != nil {
		s.logger.Error("ListByPhone: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListByPhone - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainAppointmentList(list), nil
}

// Cancel отменяет запись (confirmed -> cancelled)
// Клиент может отменить только свою запись, администратор - любую
// Повторная отмена уже отмененной записи ничего не делает
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, caller models.Caller) error {
	s.logger.Info("Cancel: cancelling appointment id=%s (admin=%t)", id, caller.IsAdmin)

	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		a, err := s.get(txCtx, "Cancel", id)
		if err != nil {
			return err
		}

		if a.IsBlocked {
			s.logger.Warn("Cancel: appointment id=%s is a blocked slot", id)
			return ErrBlockedSlot
		}

		if !caller.IsAdmin && !a.IsOwnedBy(caller.Phone) {
			s.logger.Warn("Cancel: access denied to appointment id=%s", id)
			return ErrAccessDenied
		}

		if a.IsCancelled() {
			s.logger.Info("Cancel: appointment id=%s already cancelled", id)
			return nil
		}

		if !a.CanBeCancelled() {
			s.logger.Warn("Cancel: appointment id=%s cannot be cancelled, status=%s", id, a.Status)
			return ErrCannotCancel
		}

		if err := s.repo.UpdateStatus(txCtx, id, domain.StatusCancelled); err != nil {
			s.logger.Error("Cancel: repository error for appointment id=%s: %v", id, err)
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		s.logger.Info("Cancel: appointment id=%s cancelled", id)
		return nil
	})
}

// MarkAttendance выставляет (arrived, no_show) или очищает (nil) отметку о посещении
// Статус записи не меняется
func (s *Service) MarkAttendance(ctx context.Context, id uuid.UUID, attendance *domain.AttendanceStatus) (*models.AppointmentResponse, error) {
	if attendance != nil && !attendance.IsValid() {
		return nil, fmt.Errorf("%w: unknown attendance status %q", ErrInvalidInput, *attendance)
	}

	var result *domain.Appointment
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		a, err := s.get(txCtx, "MarkAttendance", id)
		if err != nil {
			return err
		}

		if a.IsBlocked {
			s.logger.Warn("MarkAttendance: appointment id=%s is a blocked slot", id)
			return ErrBlockedSlot
		}

		if err := s.repo.SetAttendance(txCtx, id, attendance); err != nil {
			s.logger.Error("MarkAttendance: repository error for appointment id=%s: %v", id, err)
			return fmt.Errorf("%w: MarkAttendance - repository error: %v", ErrInternal, err)
		}

		a.AttendanceStatus = attendance
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("MarkAttendance: appointment id=%s attendance=%v", id, attendanceString(attendance))
	return models.FromDomainAppointment(result), nil
}

// BlockSlot создает административную блокировку [start, start+duration)
// При политике allow пересечения не проверяются, при reject - проверяются как при бронировании
func (s *Service) BlockSlot(ctx context.Context, req *models.BlockSlotRequest) (*models.AppointmentResponse, error) {
	if err := validateBlock(req); err != nil {
		s.logger.Warn("BlockSlot: validation failed: %v", err)
		return nil, err
	}

	interval := domain.NewInterval(req.StartUTC.UTC(), time.Duration(req.DurationMin)*time.Minute)
	block := &domain.Appointment{
		StartUTC:  interval.Start,
		EndUTC:    interval.End,
		Status:    domain.StatusConfirmed,
		IsBlocked: true,
	}
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		block.BlockReason = &reason
	}

	var created *domain.Appointment

	if !s.rejectBlockOverlap {
		var err error
		created, err = s.repo.Create(ctx, block)
		if err != nil {
			s.logger.Error("BlockSlot: repository error: %v", err)
			return nil, fmt.Errorf("%w: BlockSlot - repository error: %v", ErrInternal, err)
		}
	} else {
		err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
			if err := s.repo.LockDay(txCtx, interval.Start.In(s.location).Format(domain.DateFormat)); err != nil {
				return fmt.Errorf("%w: BlockSlot - lock day: %w", ErrInternal, err)
			}

			overlapping, err := s.repo.ListOverlapping(txCtx, interval)
			if err != nil {
				return fmt.Errorf("%w: BlockSlot - list overlapping: %w", ErrInternal, err)
			}
			if len(overlapping) > 0 {
				s.logger.Warn("BlockSlot: %s overlaps %d appointments", interval.Start, len(overlapping))
				return ErrSlotOverlap
			}

			created, err = s.repo.Create(txCtx, block)
			if err != nil {
				return fmt.Errorf("%w: BlockSlot - create: %w", ErrInternal, err)
			}
			return nil
		})
		if err != nil {
			if txmanager.IsSerializationFailure(err) {
				s.logger.Warn("BlockSlot: serialization conflict at %s", interval.Start)
				return nil, ErrSlotOverlap
			}
			if !errors.Is(err, ErrSlotOverlap) {
				s.logger.Error("BlockSlot: %v", err)
			}
			return nil, err
		}
	}

	s.logger.Info("BlockSlot: blocked id=%s [%s, %s)", created.ID,
		created.StartUTC.Format(time.RFC3339), created.EndUTC.Format(time.RFC3339))
	return models.FromDomainAppointment(created), nil
}

// UnblockSlot снимает блокировку (физическое удаление)
func (s *Service) UnblockSlot(ctx context.Context, id uuid.UUID) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		a, err := s.get(txCtx, "UnblockSlot", id)
		if err != nil {
			return err
		}

		if !a.IsBlocked {
			s.logger.Warn("UnblockSlot: appointment id=%s is not blocked", id)
			return ErrNotBlocked
		}

		if err := s.repo.Delete(txCtx, id); err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				return ErrAppointmentNotFound
			}
			s.logger.Error("UnblockSlot: repository error for id=%s: %v", id, err)
			return fmt.Errorf("%w: UnblockSlot - repository error: %v", ErrInternal, err)
		}

		s.logger.Info("UnblockSlot: removed block id=%s", id)
		return nil
	})
}

func (s *Service) get(ctx context.Context, method string, id uuid.UUID) (*domain.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("%s: appointment id=%s not found", method, id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("%s: repository error for appointment id=%s: %v", method, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
	}
	return a, nil
}

func validateBlock(req *models.BlockSlotRequest) error {
	if req.StartUTC.IsZero() {
		return fmt.Errorf("%w: startUtc is required", ErrInvalidInput)
	}
	if req.DurationMin <= 0 || req.DurationMin > domain.MaxBlockDurationMinutes {
		return fmt.Errorf("%w: durationMin must be between 1 and %d", ErrInvalidInput, domain.MaxBlockDurationMinutes)
	}
	if len(req.Reason) > domain.MaxBlockReasonLength {
		return fmt.Errorf("%w: reason is too long", ErrInvalidInput)
	}
	return nil
}

func attendanceString(a *domain.AttendanceStatus) string {
	if a == nil {
		return "null"
	}
	return string(*a)
}
