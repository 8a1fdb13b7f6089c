package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/api"
	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/internal/kanban"
	"github.com/sufyan2618/project-management/internal/otp"
	"github.com/sufyan2618/project-management/pkg/types"
)

// errorStatus maps a failed remote call to the status returned to the
// browser. Transport failures have no API status and become 502.
func errorStatus(err error) int {
	if code := api.StatusCode(err); code > 0 {
		return code
	}
	return http.StatusBadGateway
}

func fail(c *gin.Context, err error, fallback string) {
	c.JSON(errorStatus(err), gin.H{
		"success": false,
		"error":   api.Message(err, fallback),
	})
}

func intQuery(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func (s *Server) handleLogin(c *gin.Context) {
	var creds types.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	redirect, err := s.app.Login(c.Request.Context(), creds)
	if err != nil {
		fail(c, err, "Login failed. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"redirect": redirect,
		"user":     s.app.State().User,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	redirect, err := s.app.Logout()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": redirect})
}

func (s *Server) handleNotifications(c *gin.Context) {
	items := s.app.Notify.Active()
	c.JSON(http.StatusOK, gin.H{"notifications": items, "count": len(items)})
}

func (s *Server) handleNav(c *gin.Context) {
	st := s.app.State()
	c.JSON(http.StatusOK, gin.H{
		"items": access.NavFor(st.Role()),
		"user":  st.User,
	})
}

func (s *Server) handleDashboard(c *gin.Context) {
	d, err := s.app.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleProjects(c *gin.Context) {
	if _, ok := c.GetQuery("reset"); ok {
		s.app.ResetProjectFilters()
	}
	s.app.UpdateProjectFilters(func(f *types.ProjectFilters) {
		if search, ok := c.GetQuery("search"); ok {
			f.Search = search
		}
		f.Page = intQuery(c, "page", f.Page)
		f.Size = intQuery(c, "size", f.Size)
	})

	list, err := s.app.Projects(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to load projects")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"projects":    list.Projects,
		"total":       list.Total,
		"page":        list.Page,
		"total_pages": list.TotalPages,
		"filters":     s.app.ProjectFilters(),
	})
}

func (s *Server) handleProjectDetail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid project id"})
		return
	}

	detail, err := s.app.ProjectDetail(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to load project")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project": detail,
		"board":   kanban.Group(detail.Tasks),
	})
}

func (s *Server) handleTasks(c *gin.Context) {
	status := types.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown status"})
		return
	}

	list, err := s.app.MyTasks(c.Request.Context(), c.Query("search"), status)
	if err != nil {
		fail(c, err, "Failed to load tasks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list.Tasks, "count": len(list.Tasks)})
}

func (s *Server) handleUsers(c *gin.Context) {
	users, err := s.app.Users(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to load users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// handleBoard (re)builds the board for ?project_id (0 = my tasks) from
// fresh data
func (s *Server) handleBoard(c *gin.Context) {
	projectID := intQuery(c, "project_id", 0)

	r, ok := s.board(projectID)
	var err error
	if ok {
		err = s.app.RefreshBoard(c.Request.Context(), r, projectID)
	} else {
		r, err = s.app.Board(c.Request.Context(), projectID)
	}
	if err != nil {
		fail(c, err, "Failed to load board")
		return
	}
	s.storeBoard(projectID, r)

	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"columns":    r.Board.Columns(),
		"counts":     r.Board.Counts(),
		"pending":    r.Pending(),
	})
}

// handleBoardMove applies a drag-end event to a previously loaded board
func (s *Server) handleBoardMove(c *gin.Context) {
	projectID := intQuery(c, "project_id", 0)

	var ev kanban.DragEnd
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	r, ok := s.board(projectID)
	if !ok {
		var err error
		r, err = s.app.Board(c.Request.Context(), projectID)
		if err != nil {
			fail(c, err, "Failed to load board")
			return
		}
		s.storeBoard(projectID, r)
	}

	move, err := r.HandleDragEnd(c.Request.Context(), ev)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{
			"success": false,
			"error":   api.Message(err, "Failed to update task"),
			"move":    move,
			"columns": r.Board.Columns(),
			"pending": r.Pending(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"moved":   move != nil,
		"move":    move,
		"columns": r.Board.Columns(),
		"pending": r.Pending(),
	})
}

func (s *Server) handlePending(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pending": s.app.PendingOps()})
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type codeRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type resetRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}

// failCode reports a failed code request along with the seconds left
// before another one is allowed
func (s *Server) failCode(c *gin.Context, err error, fallback string) {
	status := errorStatus(err)
	msg := api.Message(err, fallback)
	if errors.Is(err, otp.ErrCoolingDown) {
		status = http.StatusTooManyRequests
		msg = err.Error()
	}
	c.JSON(status, gin.H{
		"success":  false,
		"error":    msg,
		"cooldown": s.app.Cooldown.Remaining(),
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		badRequest(c, errors.New("email and password are required"))
		return
	}

	user, redirect, err := s.app.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err, "Registration failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "redirect": redirect, "user": user})
}

func (s *Server) handleVerifyEmail(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	redirect, err := s.app.VerifyEmail(c.Request.Context(), req.Email, req.OTP)
	if errors.Is(err, app.ErrInvalidCode) {
		badRequest(c, err)
		return
	}
	if err != nil {
		fail(c, err, "Verification failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": redirect})
}

func (s *Server) handleResendOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.app.ResendOTP(c.Request.Context(), req.Email); err != nil {
		s.failCode(c, err, "Failed to resend OTP")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cooldown": s.app.Cooldown.Remaining()})
}

func (s *Server) handleForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	redirect, err := s.app.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		s.failCode(c, err, "Failed to send reset code")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"redirect": redirect,
		"cooldown": s.app.Cooldown.Remaining(),
	})
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	redirect, err := s.app.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword)
	if errors.Is(err, app.ErrInvalidCode) {
		badRequest(c, err)
		return
	}
	if err != nil {
		fail(c, err, "Password reset failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": redirect})
}
