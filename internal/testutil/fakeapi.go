package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sufyan2618/project-management/pkg/types"
)

// Fixture accounts seeded into every FakeAPI
const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin123"
	UserEmail     = "user@example.com"
	UserPassword  = "user123"
	ValidOTP      = "123456"
)

var signingKey = []byte("taskflow-test-secret")

type account struct {
	user     types.User
	password string
	verified bool
}

// TaskUpdate records one PATCH /api/task/{id}
type TaskUpdate struct {
	ID   int
	Body map[string]any
}

// FakeAPI is an in-memory TaskFlow server. Response shapes follow the real
// server: lists and auth responses are wrapped in {success, data, ...},
// single projects and tasks are returned bare.
type FakeAPI struct {
	*httptest.Server

	mu          sync.Mutex
	accounts    map[string]*account
	projects    map[int]*types.Project
	tasks       map[int]*types.Task
	nextID      int
	otpSentAt   map[string]time.Time
	otpRequests int
	taskUpdates []TaskUpdate
	hold        *hold

	// FailTaskUpdates makes every task PATCH answer 500
	FailTaskUpdates bool
	// Cooldown is the resend window enforced by resend-otp and forgot-password
	Cooldown time.Duration
}

type hold struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewFakeAPI starts a fake server seeded with an admin, a user, one project
// and three tasks assigned to the user (ids 1..3, one per status)
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeAPI{
		accounts:  make(map[string]*account),
		projects:  make(map[int]*types.Project),
		tasks:     make(map[int]*types.Task),
		otpSentAt: make(map[string]time.Time),
		nextID:    100,
		Cooldown:  60 * time.Second,
	}
	f.seed()

	router := gin.New()
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", f.handleRegister)
		auth.POST("/login", f.handleLogin)
		auth.POST("/verify-otp", f.handleVerifyOTP)
		auth.POST("/resend-otp", f.handleSendOTP)
		auth.POST("/forgot-password", f.handleSendOTP)
		auth.POST("/reset-password", f.handleResetPassword)
		auth.GET("/me", f.authenticated, f.handleMe)
		auth.GET("/users", f.authenticated, f.adminOnly, f.handleUsers)
	}

	project := router.Group("/api/project", f.authenticated)
	{
		project.GET("/", f.handleListProjects)
		project.POST("/", f.adminOnly, f.handleCreateProject)
		project.GET("/:id", f.handleGetProject)
		project.PATCH("/:id", f.adminOnly, f.handleUpdateProject)
		project.DELETE("/:id", f.adminOnly, f.handleDeleteProject)
	}

	task := router.Group("/api/task", f.authenticated)
	{
		task.GET("/", f.handleListTasks)
		task.POST("/", f.adminOnly, f.handleCreateTask)
		task.GET("/:id", f.handleGetTask)
		task.PATCH("/:id", f.handleUpdateTask)
		task.DELETE("/:id", f.adminOnly, f.handleDeleteTask)
	}

	f.Server = httptest.NewServer(router)
	t.Cleanup(f.Close)
	return f
}

func (f *FakeAPI) seed() {
	now := types.Time{Time: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.accounts[AdminEmail] = &account{
		user:     types.User{ID: 1, Email: AdminEmail, FullName: "Ada Admin", Role: types.RoleAdmin, CreatedAt: now},
		password: AdminPassword,
		verified: true,
	}
	f.accounts[UserEmail] = &account{
		user:     types.User{ID: 2, Email: UserEmail, FullName: "Uma User", Role: types.RoleUser, CreatedAt: now},
		password: UserPassword,
		verified: true,
	}
	f.projects[1] = &types.Project{ID: 1, Title: "Website Redesign", Description: "Refresh the marketing site", CreatedBy: 1, CreatedAt: now, UpdatedAt: now}
	for i, s := range types.Statuses {
		id := i + 1
		f.tasks[id] = &types.Task{
			ID: id, Title: fmt.Sprintf("Task %d", id), Status: s,
			AssignedTo: 2, ProjectID: 1, CreatedAt: now, UpdatedAt: now,
		}
	}
}

// TokenFor issues a bearer token for the fixture account with email
func (f *FakeAPI) TokenFor(email string, ttl time.Duration) string {
	f.mu.Lock()
	acc := f.accounts[email]
	f.mu.Unlock()
	if acc == nil {
		return ""
	}
	return signToken(acc.user, ttl)
}

// TaskUpdates returns the PATCH bodies received so far
func (f *FakeAPI) TaskUpdates() []TaskUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TaskUpdate(nil), f.taskUpdates...)
}

// Task returns the server copy of a task
func (f *FakeAPI) Task(id int) (types.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return types.Task{}, false
	}
	return *t, true
}

// HoldTaskUpdates makes task PATCH requests wait until release is called.
// entered receives once per request that reaches the handler.
func (f *FakeAPI) HoldTaskUpdates() (entered <-chan struct{}, release func()) {
	h := &hold{entered: make(chan struct{}, 16), release: make(chan struct{})}
	f.mu.Lock()
	f.hold = h
	f.mu.Unlock()
	return h.entered, func() { h.once.Do(func() { close(h.release) }) }
}

// OTPRequests returns how many resend-otp and forgot-password calls arrived
func (f *FakeAPI) OTPRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.otpRequests
}

// AddUnverified registers an account that still needs email verification
func (f *FakeAPI) AddUnverified(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.accounts[email] = &account{
		user:     types.User{ID: f.nextID, Email: email, Role: types.RoleUser},
		password: password,
	}
}

func signToken(u types.User, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub":     u.Email,
		"user_id": u.ID,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	return s
}

func ok(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "message": message})
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func (f *FakeAPI) authenticated(c *gin.Context) {
	raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		detail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	email, _ := token.Claims.GetSubject()

	f.mu.Lock()
	acc := f.accounts[email]
	f.mu.Unlock()
	if acc == nil {
		detail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	c.Set("user", acc.user)
	c.Next()
}

func (f *FakeAPI) adminOnly(c *gin.Context) {
	if currentUser(c).Role != types.RoleAdmin {
		detail(c, http.StatusForbidden, "Admin access required")
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) types.User {
	u, _ := c.Get("user")
	user, _ := u.(types.User)
	return user
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{
			{"loc": []any{"path", "id"}, "msg": "Input should be a valid integer"},
		}})
		return 0, false
	}
	return id, true
}

func (f *FakeAPI) handleRegister(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{
			{"loc": []any{"body", "email"}, "msg": "value is not a valid email address"},
		}})
		return
	}
	if len(req.Password) < 6 {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{
			{"loc": []any{"body", "password"}, "msg": "Value error, Password must be at least 6 characters"},
		}})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[req.Email]; exists {
		detail(c, http.StatusBadRequest, "Email already registered")
		return
	}
	f.nextID++
	acc := &account{
		user:     types.User{ID: f.nextID, Email: req.Email, FullName: req.FullName, Role: types.RoleUser},
		password: req.Password,
	}
	f.accounts[req.Email] = acc
	f.otpSentAt[req.Email] = time.Now()
	ok(c, acc.user, "Registration successful. Please check your email for the OTP.")
}

func (f *FakeAPI) handleLogin(c *gin.Context) {
	var creds types.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	f.mu.Lock()
	acc := f.accounts[creds.Email]
	f.mu.Unlock()
	if acc == nil || acc.password != creds.Password {
		detail(c, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if !acc.verified {
		detail(c, http.StatusForbidden, "Please verify your email before logging in")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"data":         acc.user,
		"access_token": signToken(acc.user, time.Hour),
		"message":      "Login successful",
	})
}

func (f *FakeAPI) handleVerifyOTP(c *gin.Context) {
	email, code := c.Query("email"), c.Query("otp")

	f.mu.Lock()
	defer f.mu.Unlock()
	acc := f.accounts[email]
	if acc == nil {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if code != ValidOTP {
		detail(c, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	acc.verified = true
	ok(c, acc.user, "Email verified successfully")
}

func (f *FakeAPI) handleSendOTP(c *gin.Context) {
	email := c.Query("email")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.otpRequests++
	if f.accounts[email] == nil {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if sent, seen := f.otpSentAt[email]; seen {
		if left := f.Cooldown - time.Since(sent); left > 0 {
			secs := int(left.Seconds()) + 1
			detail(c, http.StatusTooManyRequests,
				fmt.Sprintf("Please wait %d seconds before requesting another OTP", secs))
			return
		}
	}
	f.otpSentAt[email] = time.Now()
	ok(c, nil, "OTP sent successfully")
}

func (f *FakeAPI) handleResetPassword(c *gin.Context) {
	email, code, password := c.Query("email"), c.Query("otp"), c.Query("new_password")

	f.mu.Lock()
	defer f.mu.Unlock()
	acc := f.accounts[email]
	if acc == nil {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if code != ValidOTP {
		detail(c, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	acc.password = password
	ok(c, nil, "Password reset successfully")
}

func (f *FakeAPI) handleMe(c *gin.Context) {
	ok(c, currentUser(c), "")
}

func (f *FakeAPI) handleUsers(c *gin.Context) {
	f.mu.Lock()
	users := make([]types.User, 0, len(f.accounts))
	for _, acc := range f.accounts {
		users = append(users, acc.user)
	}
	f.mu.Unlock()
	sortByID(users, func(u types.User) int { return u.ID })
	ok(c, users, "")
}

func (f *FakeAPI) handleListProjects(c *gin.Context) {
	search := strings.ToLower(c.Query("search"))
	page, size := paging(c)

	f.mu.Lock()
	var all []types.Project
	for _, p := range f.projects {
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		cp := *p
		cp.TaskCount = f.countTasks(p.ID)
		all = append(all, cp)
	}
	f.mu.Unlock()
	sortByID(all, func(p types.Project) int { return p.ID })

	ok(c, types.ProjectList{
		Projects:   window(all, page, size),
		Total:      len(all),
		Page:       page,
		Size:       size,
		TotalPages: (len(all) + size - 1) / size,
	}, "")
}

func (f *FakeAPI) handleGetProject(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p, exists := f.projects[id]
	if !exists {
		detail(c, http.StatusNotFound, "Project not found")
		return
	}
	d := types.ProjectDetail{Project: *p, Tasks: []types.Task{}}
	for _, t := range f.sortedTasks() {
		if t.ProjectID == id {
			d.Tasks = append(d.Tasks, t)
		}
	}
	c.JSON(http.StatusOK, d)
}

func (f *FakeAPI) handleCreateProject(c *gin.Context) {
	var in types.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil || in.Title == nil || *in.Title == "" {
		detail(c, http.StatusBadRequest, "Title is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	now := types.Time{Time: time.Now().UTC()}
	p := &types.Project{ID: f.nextID, Title: *in.Title, CreatedBy: currentUser(c).ID, CreatedAt: now, UpdatedAt: now}
	if in.Description != nil {
		p.Description = *in.Description
	}
	f.projects[p.ID] = p
	c.JSON(http.StatusOK, p)
}

func (f *FakeAPI) handleUpdateProject(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var in types.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p, exists := f.projects[id]
	if !exists {
		detail(c, http.StatusNotFound, "Project not found")
		return
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	p.UpdatedAt = types.Time{Time: time.Now().UTC()}
	c.JSON(http.StatusOK, p)
}

func (f *FakeAPI) handleDeleteProject(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.projects[id]; !exists {
		detail(c, http.StatusNotFound, "Project not found")
		return
	}
	delete(f.projects, id)
	for tid, t := range f.tasks {
		if t.ProjectID == id {
			delete(f.tasks, tid)
		}
	}
	ok(c, nil, "Project deleted successfully")
}

// handleListTasks answers with an enveloped bare array, like the real server
func (f *FakeAPI) handleListTasks(c *gin.Context) {
	status := c.Query("status")
	search := strings.ToLower(c.Query("search"))
	assigned, _ := strconv.Atoi(c.Query("assigned_to"))
	projectID, _ := strconv.Atoi(c.Query("project_id"))
	page, size := paging(c)

	f.mu.Lock()
	var matched []types.Task
	for _, t := range f.sortedTasks() {
		if status != "" && string(t.Status) != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		if assigned > 0 && t.AssignedTo != assigned {
			continue
		}
		if projectID > 0 && t.ProjectID != projectID {
			continue
		}
		matched = append(matched, t)
	}
	f.mu.Unlock()

	ok(c, window(matched, page, size), "")
}

func (f *FakeAPI) handleGetTask(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	t, exists := f.tasks[id]
	if !exists {
		detail(c, http.StatusNotFound, "Task not found")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (f *FakeAPI) handleCreateTask(c *gin.Context) {
	var in types.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil || in.Title == nil || in.ProjectID == nil {
		detail(c, http.StatusBadRequest, "Title and project are required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.projects[*in.ProjectID]; !exists {
		detail(c, http.StatusNotFound, "Project not found")
		return
	}
	f.nextID++
	now := types.Time{Time: time.Now().UTC()}
	t := &types.Task{ID: f.nextID, Title: *in.Title, Status: types.StatusTodo, ProjectID: *in.ProjectID, CreatedAt: now, UpdatedAt: now}
	applyTaskInput(t, in)
	f.tasks[t.ID] = t
	c.JSON(http.StatusOK, t)
}

func (f *FakeAPI) handleUpdateTask(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	raw, _ := io.ReadAll(c.Request.Body)
	var body map[string]any
	var in types.TaskInput
	if json.Unmarshal(raw, &body) != nil || json.Unmarshal(raw, &in) != nil {
		detail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	f.mu.Lock()
	h := f.hold
	f.mu.Unlock()
	if h != nil {
		h.entered <- struct{}{}
		<-h.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.taskUpdates = append(f.taskUpdates, TaskUpdate{ID: id, Body: body})
	if f.FailTaskUpdates {
		detail(c, http.StatusInternalServerError, "Database unavailable")
		return
	}
	t, exists := f.tasks[id]
	if !exists {
		detail(c, http.StatusNotFound, "Task not found")
		return
	}
	if user := currentUser(c); user.Role != types.RoleAdmin && t.AssignedTo != user.ID {
		detail(c, http.StatusForbidden, "Not authorized to update this task")
		return
	}
	applyTaskInput(t, in)
	t.UpdatedAt = types.Time{Time: time.Now().UTC()}
	c.JSON(http.StatusOK, t)
}

func (f *FakeAPI) handleDeleteTask(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.tasks[id]; !exists {
		detail(c, http.StatusNotFound, "Task not found")
		return
	}
	delete(f.tasks, id)
	ok(c, nil, "Task deleted successfully")
}

func applyTaskInput(t *types.Task, in types.TaskInput) {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.AssignedTo != nil {
		t.AssignedTo = *in.AssignedTo
	}
	if in.ProjectID != nil {
		t.ProjectID = *in.ProjectID
	}
	if in.DueDate != nil {
		if due, err := types.ParseTime(*in.DueDate); err == nil {
			t.DueDate = &due
		}
	}
}

// countTasks and sortedTasks expect f.mu to be held
func (f *FakeAPI) countTasks(projectID int) int {
	n := 0
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n
}

func (f *FakeAPI) sortedTasks() []types.Task {
	out := make([]types.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, *t)
	}
	sortByID(out, func(t types.Task) int { return t.ID })
	return out
}

func paging(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 {
		size = 10
	}
	return page, size
}

func window[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func sortByID[T any](items []T, id func(T) int) {
	slices.SortFunc(items, func(a, b T) int { return id(a) - id(b) })
}
