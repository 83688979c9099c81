package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-management-api/internal/middleware"
	"clinic-management-api/internal/model"
)

func (h *Handler) PatientDetails(c *gin.Context) {
	p, err := h.store.GetPatient(c.Request.Context(), middleware.Principal(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	// password hash stays server-side
	c.JSON(http.StatusOK, gin.H{"patient": gin.H{
		"id":      p.ID,
		"name":    p.Name,
		"email":   p.Email,
		"phone":   p.Phone,
		"address": p.Address,
	}})
}

// PatientAppointments lists the caller's appointments, optionally
// filtered by condition (past=completed, future=scheduled) and by a
// doctor-name fragment.
func (h *Handler) PatientAppointments(c *gin.Context) {
	var status *model.AppointmentStatus
	switch c.Query("condition") {
	case "":
	case "past":
		s := model.StatusCompleted
		status = &s
	case "future":
		s := model.StatusScheduled
		status = &s
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "condition must be 'past' or 'future'"})
		return
	}

	appts, err := h.store.FindByPatientFiltered(c.Request.Context(), middleware.Principal(c).ID, status, c.Query("doctorName"))
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
