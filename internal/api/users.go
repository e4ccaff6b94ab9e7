package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mealattendance/internal/auth"
	"mealattendance/internal/meal"
	"mealattendance/internal/users"
)

const maxPhotoBytes = 5 << 20

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type newPasswordRequest struct {
	Password string `json:"password"`
}

func (s *server) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, meal.Invalidf("Invalid request body"))
		return
	}
	u, err := s.Users.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User registered successfully. Please check your email to verify your account.", "user": u})
}

func (s *server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, meal.Invalidf("Invalid request body"))
		return
	}
	u, err := s.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	role := auth.RoleMember
	if s.IsAdmin(u.Email) {
		role = auth.RoleAdmin
	}
	s.issue(c, http.StatusOK, u, role)
}

func (s *server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, meal.Invalidf("refreshToken is required"))
		return
	}
	claims, err := s.Signer.Parse(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		respondError(c, meal.ErrUnauthorized)
		return
	}
	u, err := s.Users.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			err = meal.ErrUnauthorized
		}
		respondError(c, err)
		return
	}
	s.issue(c, http.StatusOK, u, claims.Role)
}

func (s *server) verify(c *gin.Context) {
	u, err := s.Users.Verify(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email verified successfully", "user": u})
}

func (s *server) requestReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, meal.Invalidf("Invalid request body"))
		return
	}
	if err := s.Users.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "If that account exists, a reset link has been sent"})
}

func (s *server) resetPassword(c *gin.Context) {
	var req newPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, meal.Invalidf("Invalid request body"))
		return
	}
	if err := s.Users.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password reset successfully"})
}

func (s *server) issue(c *gin.Context, status int, u *users.User, role string) {
	tokens, err := s.Signer.Issue(u.ID, u.Email, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{
		"success":      true,
		"token":        tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"expiresAt":    tokens.AccessExp.Unix(),
		"user":         u,
	})
}

func (s *server) me(c *gin.Context) {
	u, ok := s.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

func (s *server) toggleMembership(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	u, err := s.Users.ToggleMembership(c.Request.Context(), claims.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Membership Deactivated Successfully"
	if u.Membership == users.Active {
		msg = "Membership Activated Successfully"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "membershipActive": u.Membership})
}

func (s *server) uploadPhoto(c *gin.Context) {
	if s.Photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "photo storage not configured"})
		return
	}
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		respondError(c, meal.Invalidf("No file uploaded"))
		return
	}
	defer file.Close()
	if header.Size > maxPhotoBytes {
		respondError(c, meal.Invalidf("File too large"))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(data) > maxPhotoBytes {
		respondError(c, meal.Invalidf("File too large"))
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	u, err := s.Users.UpdatePhoto(c.Request.Context(), claims.Subject, s.Photos, data, header.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile photo updated", "profilePhoto": u.ProfilePhoto})
}
