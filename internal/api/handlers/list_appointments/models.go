package list_appointments

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// ParseQuery разбирает фильтры списка
// from/to: RFC3339 или YYYY-MM-DD (начало дня в часовом поясе бизнеса)
func ParseQuery(q url.Values, loc *time.Location) (*models.ListAppointmentsRequest, error) {
	req := &models.ListAppointmentsRequest{}

	var err error
	if req.From, err = parseBound(q.Get("from"), loc); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if req.To, err = parseBound(q.Get("to"), loc); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}

	if v := q.Get("includeCancelled"); v != "" {
		if req.IncludeCancelled, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("includeCancelled: %w", err)
		}
	}
	if v := q.Get("onlyBlocked"); v != "" {
		if req.OnlyBlocked, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("onlyBlocked: %w", err)
		}
	}

	return req, nil
}

func parseBound(v string, loc *time.Location) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(domain.DateFormat, v, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
