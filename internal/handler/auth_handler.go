package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinic-management-api/internal/auth"
	"clinic-management-api/internal/middleware"
	"clinic-management-api/internal/model"
)

const refreshTokenTTL = 7 * 24 * time.Hour

type registerPatientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address"`
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req registerPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taken, err := h.store.PatientExists(c.Request.Context(), req.Email, req.Phone)
	if err != nil {
		h.fail(c, err)
		return
	}
	if taken {
		// don't reveal which field collided
		c.JSON(http.StatusConflict, gin.H{"error": "registration failed"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	p := &model.Patient{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Address:      req.Address,
	}
	if err := h.store.CreatePatient(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "registration failed"})
		return
	}

	h.issueTokens(c, p.ID, auth.RolePatient, p.Name)
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) PatientLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}
	p, err := h.store.PatientByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPassword(p.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	h.issueTokens(c, p.ID, auth.RolePatient, p.Name)
}

func (h *Handler) DoctorLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}
	d, err := h.store.DoctorByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPassword(d.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	h.issueTokens(c, d.ID, auth.RoleDoctor, d.Name)
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	a, err := h.store.AdminByUsername(c.Request.Context(), req.Username)
	if err != nil || !auth.CheckPassword(a.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	h.issueTokens(c, a.ID, auth.RoleAdmin, a.Username)
}

func (h *Handler) issueTokens(c *gin.Context, userID string, role auth.Role, name string) {
	access, err := auth.MakeToken(userID, role, h.secret)
	if err != nil {
		h.fail(c, err)
		return
	}
	rawRefresh, tokenHash, err := auth.GenerateRefreshToken()
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.store.CreateRefreshToken(c.Request.Context(), userID, string(role), tokenHash, time.Now().Add(refreshTokenTTL)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":       userID,
		"name":         name,
		"role":         role,
		"token":        access,
		"refreshToken": rawRefresh,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken required"})
		return
	}

	rt, err := h.store.GetRefreshTokenByHash(c.Request.Context(), auth.HashRefreshToken(req.RefreshToken))
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	role := auth.Role(rt.Role)
	access, err := auth.MakeToken(rt.UserID, role, h.secret)
	if err != nil {
		h.fail(c, err)
		return
	}
	rawRefresh, newHash, err := auth.GenerateRefreshToken()
	if err != nil {
		h.fail(c, err)
		return
	}
	newID := uuid.New().String()
	if err := h.store.RotateRefreshToken(c.Request.Context(), rt.ID, newID, rt.UserID, rt.Role, newHash, time.Now().Add(refreshTokenTTL)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": access, "refreshToken": rawRefresh})
}

func (h *Handler) Logout(c *gin.Context) {
	p := middleware.Principal(c)
	if err := h.store.RevokeAllRefreshTokens(c.Request.Context(), p.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
