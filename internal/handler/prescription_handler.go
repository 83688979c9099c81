package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinic-management-api/internal/model"
)

type prescriptionRequest struct {
	AppointmentID string `json:"appointmentId" binding:"required"`
	PatientName   string `json:"patientName" binding:"required"`
	Medication    string `json:"medication" binding:"required"`
	Dosage        string `json:"dosage" binding:"required"`
	DoctorNotes   string `json:"doctorNotes"`
}

// CreatePrescription stores the prescription and finalizes the
// encounter: issuing one flips the appointment to completed.
func (h *Handler) CreatePrescription(c *gin.Context) {
	var req prescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.store.GetAppointment(c.Request.Context(), req.AppointmentID); err != nil {
		h.fail(c, err)
		return
	}

	p := &model.Prescription{
		ID:            uuid.New().String(),
		AppointmentID: req.AppointmentID,
		PatientName:   req.PatientName,
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		DoctorNotes:   req.DoctorNotes,
	}
	if err := h.store.SavePrescription(c.Request.Context(), p); err != nil {
		h.fail(c, err)
		return
	}

	if err := h.sched.Complete(c.Request.Context(), req.AppointmentID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "message": "prescription created"})
}

func (h *Handler) GetPrescription(c *gin.Context) {
	p, err := h.store.PrescriptionByAppointment(c.Request.Context(), c.Param("appointmentId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prescription": gin.H{
		"id":            p.ID,
		"appointmentId": p.AppointmentID,
		"patientName":   p.PatientName,
		"medication":    p.Medication,
		"dosage":        p.Dosage,
		"doctorNotes":   p.DoctorNotes,
	}})
}
