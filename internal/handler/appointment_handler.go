package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-management-api/internal/middleware"
	"clinic-management-api/internal/model"
)

type appointmentView struct {
	ID        string    `json:"id"`
	DoctorID  string    `json:"doctorId"`
	PatientID string    `json:"patientId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
}

func toView(a *model.Appointment) appointmentView {
	return appointmentView{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		StartTime: a.StartTime,
		EndTime:   a.EndTime(),
		Status:    string(a.Status),
	}
}

type bookRequest struct {
	DoctorID  string    `json:"doctorId" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doctorId and startTime required"})
		return
	}
	id, err := h.sched.Book(c.Request.Context(), middleware.Principal(c), req.DoctorID, req.StartTime)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"appointmentId": id})
}

type rescheduleRequest struct {
	DoctorID  *string    `json:"doctorId"`
	StartTime *time.Time `json:"startTime"`
	Status    *string    `json:"status"`
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var status *model.AppointmentStatus
	if req.Status != nil {
		s := model.AppointmentStatus(*req.Status)
		status = &s
	}
	err := h.sched.Reschedule(c.Request.Context(), middleware.Principal(c), c.Param("id"), req.DoctorID, req.StartTime, status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "appointment updated", "appointmentId": c.Param("id")})
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	err := h.sched.Cancel(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "appointment cancelled", "appointmentId": c.Param("id")})
}

// DoctorDay lists a doctor's appointments on a calendar day, optionally
// filtered by patient name.
func (h *Handler) DoctorDay(c *gin.Context) {
	doctorID := c.Query("doctorId")
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil || doctorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doctorId and date (YYYY-MM-DD) required"})
		return
	}
	dayStart := date
	dayEnd := date.Add(24 * time.Hour)

	appts, err := h.store.FindByDoctorDay(c.Request.Context(), doctorID, dayStart, dayEnd, c.Query("patientName"))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]appointmentView, len(appts))
	for i := range appts {
		out[i] = toView(&appts[i])
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "appointments": out})
}
