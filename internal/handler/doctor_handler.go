package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinic-management-api/internal/auth"
	"clinic-management-api/internal/model"
)

type doctorView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialty      string   `json:"specialty"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	AvailableTimes []string `json:"availableTimes"`
}

func toDoctorView(d *model.Doctor) doctorView {
	return doctorView{
		ID:             d.ID,
		Name:           d.Name,
		Specialty:      d.Specialty,
		Email:          d.Email,
		Phone:          d.Phone,
		AvailableTimes: d.AvailableTimes,
	}
}

// ListDoctors filters by optional name, specialty and declared slot.
func (h *Handler) ListDoctors(c *gin.Context) {
	docs, err := h.store.FilterDoctors(c.Request.Context(), c.Query("name"), c.Query("specialty"), c.Query("slot"))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]doctorView, len(docs))
	for i := range docs {
		out[i] = toDoctorView(&docs[i])
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "doctors": out})
}

// DoctorAvailability returns the bookable slot starts for a date.
func (h *Handler) DoctorAvailability(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date (YYYY-MM-DD) required"})
		return
	}
	slots, err := h.sched.Availability(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	c.JSON(http.StatusOK, gin.H{
		"doctorId":       c.Param("id"),
		"date":           date.Format("2006-01-02"),
		"availableSlots": out,
	})
}

type doctorRequest struct {
	Name           string   `json:"name" binding:"required,min=3"`
	Specialty      string   `json:"specialty" binding:"required"`
	Email          string   `json:"email" binding:"required,email"`
	Password       string   `json:"password"`
	Phone          string   `json:"phone" binding:"required"`
	AvailableTimes []string `json:"availableTimes"`
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req doctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password too short"})
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	d := &model.Doctor{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Specialty:      req.Specialty,
		Email:          req.Email,
		PasswordHash:   hash,
		Phone:          req.Phone,
		AvailableTimes: req.AvailableTimes,
	}
	if err := h.store.CreateDoctor(c.Request.Context(), d); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"doctorId": d.ID})
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	var req doctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d := &model.Doctor{
		ID:             c.Param("id"),
		Name:           req.Name,
		Specialty:      req.Specialty,
		Email:          req.Email,
		Phone:          req.Phone,
		AvailableTimes: req.AvailableTimes,
	}
	if err := h.store.UpdateDoctor(c.Request.Context(), d); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "doctor updated", "doctorId": d.ID})
}

// DeleteDoctor removes the doctor; appointments cascade in the schema.
func (h *Handler) DeleteDoctor(c *gin.Context) {
	if err := h.store.DeleteDoctor(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "doctor deleted", "doctorId": c.Param("id")})
}
