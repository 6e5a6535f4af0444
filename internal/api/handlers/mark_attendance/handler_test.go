package mark_attendance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

type fakeService struct {
	err    error
	called bool
	last   *domain.AttendanceStatus
}

func (f *fakeService) MarkAttendance(_ context.Context, id uuid.UUID, a *domain.AttendanceStatus) (*models.AppointmentResponse, error) {
	f.called = true
	f.last = a
	if f.err != nil {
		return nil, f.err
	}
	return &models.AppointmentResponse{ID: id.String()}, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func patch(svc *fakeService, id, body string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.HandleFunc("/admin/appointments/{appointmentId}/attendance", NewHandler(svc, nopLogger{}).Handle).
		Methods(http.MethodPatch)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/appointments/"+id+"/attendance", strings.NewReader(body)))
	return rec
}

func TestHandle(t *testing.T) {
	id := uuid.NewString()

	t.Run("arrived", func(t *testing.T) {
		svc := &fakeService{}
		rec := patch(svc, id, `{"attendanceStatus":"arrived"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.last)
		assert.Equal(t, domain.AttendanceArrived, *svc.last)
	})

	t.Run("null clears", func(t *testing.T) {
		svc := &fakeService{}
		rec := patch(svc, id, `{"attendanceStatus":null}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.called)
		assert.Nil(t, svc.last)
	})

	t.Run("unknown value", func(t *testing.T) {
		svc := &fakeService{}
		rec := patch(svc, id, `{"attendanceStatus":"late"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, svc.called)
	})

	t.Run("bad id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, patch(&fakeService{}, "42", `{}`).Code)
	})

	t.Run("errors", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, patch(&fakeService{err: appointments.ErrAppointmentNotFound}, id, `{"attendanceStatus":"no_show"}`).Code)
		assert.Equal(t, http.StatusBadRequest, patch(&fakeService{err: appointments.ErrBlockedSlot}, id, `{"attendanceStatus":"no_show"}`).Code)
	})
}
