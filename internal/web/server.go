// Package web serves the client views as JSON for a local browser front-end.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/internal/kanban"
	"github.com/sufyan2618/project-management/internal/session"
	"github.com/sufyan2618/project-management/pkg/types"
)

// Server is the TaskFlow web server
type Server struct {
	app    *app.Context
	router *gin.Engine

	mu     sync.Mutex
	boards map[int]*kanban.Reconciler
}

// NewServer creates a new web server over a
func NewServer(a *app.Context) *Server {
	router := gin.Default()

	s := &Server{
		app:    a,
		router: router,
		boards: make(map[int]*kanban.Reconciler),
	}

	router.POST("/login", s.handleLogin)
	router.POST("/logout", s.handleLogout)
	router.GET("/notifications", s.handleNotifications)

	auth := router.Group("/")
	{
		auth.POST("/register", s.handleRegister)
		auth.POST("/verify-email", s.handleVerifyEmail)
		auth.POST("/resend-otp", s.handleResendOTP)
		auth.POST("/forgot-password", s.handleForgotPassword)
		auth.POST("/reset-password", s.handleResetPassword)
	}

	signedIn := router.Group("/", s.guard())
	{
		signedIn.GET("/nav", s.handleNav)
		signedIn.GET("/dashboard", s.handleDashboard)
		signedIn.GET("/projects", s.handleProjects)
		signedIn.GET("/projects/:id", s.handleProjectDetail)
		signedIn.GET("/board", s.boardGuard(), s.handleBoard)
		signedIn.POST("/board/move", s.boardGuard(), s.handleBoardMove)
		signedIn.GET("/pending", s.handlePending)
	}

	router.GET("/tasks", s.guard(types.RoleUser), s.handleTasks)
	router.GET("/users", s.guard(types.RoleAdmin), s.handleUsers)

	router.NoRoute(func(c *gin.Context) {
		target := s.app.Navigate(c.Request.URL.Path)
		if target == c.Request.URL.Path {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
			return
		}
		c.Redirect(http.StatusFound, target)
	})

	// Drop the board cache when the session changes hands
	a.Session.Subscribe(func(st session.State) {
		if !st.IsAuthenticated {
			s.resetBoards()
		}
	})

	return s
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("warning: shutdown failed: %v", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// guard admits requests from a valid session whose role is in roles (any
// role when empty) and redirects the rest
func (s *Server) guard(roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := access.Guard(s.app.State(), roles, s.app.Now())
		if !d.Allowed {
			c.Redirect(http.StatusFound, d.RedirectTo)
			c.Abort()
			return
		}
		c.Next()
	}
}

// boardGuard limits the my-tasks board (no project_id) to users, the same
// way /tasks is limited
func (s *Server) boardGuard() gin.HandlerFunc {
	mine := s.guard(types.RoleUser)
	return func(c *gin.Context) {
		if intQuery(c, "project_id", 0) == 0 {
			mine(c)
			return
		}
		c.Next()
	}
}

func (s *Server) board(projectID int) (*kanban.Reconciler, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.boards[projectID]
	return r, ok
}

func (s *Server) storeBoard(projectID int, r *kanban.Reconciler) {
	s.mu.Lock()
	s.boards[projectID] = r
	s.mu.Unlock()
}

func (s *Server) resetBoards() {
	s.mu.Lock()
	s.boards = make(map[int]*kanban.Reconciler)
	s.mu.Unlock()
}
