package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clinic-management-api/internal/auth"
	"clinic-management-api/internal/middleware"
	"clinic-management-api/internal/schedule"
	"clinic-management-api/internal/store"
)

type Handler struct {
	store  *store.Store
	sched  *schedule.Scheduler
	secret string
	log    zerolog.Logger
}

func New(st *store.Store, sched *schedule.Scheduler, secret string, log zerolog.Logger) *Handler {
	return &Handler{store: st, sched: sched, secret: secret, log: log}
}

// Routes wires the full HTTP surface. Credential endpoints sit behind
// the rate limiter; everything else behind the identity resolver.
func (h *Handler) Routes(r *gin.Engine, resolver *auth.Resolver, rl *middleware.RateLimiter) {
	limited := r.Group("/auth", middleware.RateLimit(rl))
	{
		limited.POST("/patient/register", h.RegisterPatient)
		limited.POST("/patient/login", h.PatientLogin)
		limited.POST("/doctor/login", h.DoctorLogin)
		limited.POST("/admin/login", h.AdminLogin)
		limited.POST("/refresh", h.Refresh)
	}

	authed := r.Group("/", middleware.Auth(resolver))
	{
		authed.POST("/auth/logout", h.Logout)

		authed.GET("/doctors", h.ListDoctors)
		authed.GET("/doctors/:id/availability", h.DoctorAvailability)
		admin := authed.Group("/", middleware.RequireRole(auth.RoleAdmin))
		{
			admin.POST("/doctors", h.CreateDoctor)
			admin.PUT("/doctors/:id", h.UpdateDoctor)
			admin.DELETE("/doctors/:id", h.DeleteDoctor)
		}

		authed.POST("/appointments", h.BookAppointment)
		authed.PATCH("/appointments/:id", h.RescheduleAppointment)
		authed.DELETE("/appointments/:id", h.CancelAppointment)
		authed.GET("/appointments", middleware.RequireRole(auth.RoleDoctor), h.DoctorDay)

		patient := authed.Group("/patient", middleware.RequireRole(auth.RolePatient))
		{
			patient.GET("/me", h.PatientDetails)
			patient.GET("/appointments", h.PatientAppointments)
		}

		rx := authed.Group("/prescriptions", middleware.RequireRole(auth.RoleDoctor))
		{
			rx.POST("", h.CreatePrescription)
			rx.GET("/:appointmentId", h.GetPrescription)
		}
	}
}

// fail maps the scheduling error taxonomy to HTTP statuses at the edge.
// Internal details are logged, never returned.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, schedule.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, schedule.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, schedule.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
