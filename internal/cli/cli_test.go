package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/internal/testutil"
	"github.com/sufyan2618/project-management/pkg/types"
)

func newTestApp(t *testing.T) (*app.Context, *testutil.FakeAPI) {
	t.Helper()
	env := testutil.SetupTestEnv(t)
	fake := testutil.NewFakeAPI(t)
	a, err := app.Open(env.Config(fake.URL))
	if err != nil {
		t.Fatalf("app.Open failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, fake
}

func TestLoginPrintsUser(t *testing.T) {
	a, _ := newTestApp(t)
	var out bytes.Buffer

	err := login(context.Background(), a, &out, types.Credentials{
		Email: testutil.AdminEmail, Password: testutil.AdminPassword,
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out.String(), "Signed in as Ada Admin (admin)") {
		t.Errorf("Unexpected output: %q", out.String())
	}
}

func TestRequireRoute(t *testing.T) {
	a, _ := newTestApp(t)

	if err := requireRoute(a, access.DashboardPath); err != errNotSignedIn {
		t.Errorf("Expected errNotSignedIn, got %v", err)
	}

	if err := login(context.Background(), a, &bytes.Buffer{}, types.Credentials{
		Email: testutil.AdminEmail, Password: testutil.AdminPassword,
	}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := requireRoute(a, access.DashboardPath); err != nil {
		t.Errorf("Expected dashboard allowed, got %v", err)
	}
	if err := requireRoute(a, access.TasksPath); err != errForbidden {
		t.Errorf("Expected errForbidden for admin on /tasks, got %v", err)
	}
	if err := requireCapability(a, access.ManageProjects); err != nil {
		t.Errorf("Expected admin to manage projects, got %v", err)
	}
}

func TestDashboardOutput(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	if err := login(ctx, a, &bytes.Buffer{}, types.Credentials{
		Email: testutil.UserEmail, Password: testutil.UserPassword,
	}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	var out bytes.Buffer
	if err := dashboard(ctx, a, &out); err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	for _, want := range []string{"Welcome back, Uma User!", "To Do:", "In Progress:", "Done:", "Task 1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestListProjectsOutput(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	if err := login(ctx, a, &bytes.Buffer{}, types.Credentials{
		Email: testutil.AdminEmail, Password: testutil.AdminPassword,
	}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	var out bytes.Buffer
	if err := listProjects(ctx, a, &out); err != nil {
		t.Fatalf("listProjects failed: %v", err)
	}
	if !strings.Contains(out.String(), "Website Redesign") || !strings.Contains(out.String(), "TITLE") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}

func TestWhoamiJSON(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()
	if err := login(ctx, a, &bytes.Buffer{}, types.Credentials{
		Email: testutil.UserEmail, Password: testutil.UserPassword,
	}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	jsonOutput = true
	defer func() { jsonOutput = false }()

	var out bytes.Buffer
	if err := whoami(ctx, a, &out); err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	var user types.User
	if err := json.Unmarshal(out.Bytes(), &user); err != nil {
		t.Fatalf("Expected JSON output: %v\n%s", err, out.String())
	}
	if user.Email != testutil.UserEmail || user.Role != types.RoleUser {
		t.Errorf("Unexpected user: %+v", user)
	}
}

func TestTaskInputOnlyChangedFlags(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "update"}
	addTaskFlags(cmd)
	if err := cmd.Flags().Parse([]string{"--status", "done", "--assignee", "2"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	in, err := taskInput(cmd)
	if err != nil {
		t.Fatalf("taskInput failed: %v", err)
	}
	if in.Status == nil || *in.Status != types.StatusDone {
		t.Errorf("Expected status done, got %v", in.Status)
	}
	if in.AssignedTo == nil || *in.AssignedTo != 2 {
		t.Errorf("Expected assignee 2, got %v", in.AssignedTo)
	}
	if in.Title != nil || in.Description != nil || in.DueDate != nil || in.ProjectID != nil {
		t.Errorf("Expected unset flags to stay nil, got %+v", in)
	}
}

func TestTaskInputRejectsBadValues(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{{"--status", "blocked"}, {"--due", "next week"}} {
		cmd := &cobra.Command{Use: "update"}
		addTaskFlags(cmd)
		if err := cmd.Flags().Parse(args); err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if _, err := taskInput(cmd); err == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}

func TestBoardPath(t *testing.T) {
	t.Parallel()

	if got := boardPath(0); got != access.TasksPath {
		t.Errorf("Expected %s, got %s", access.TasksPath, got)
	}
	if got := boardPath(7); got != "/projects/7" {
		t.Errorf("Expected /projects/7, got %s", got)
	}
}

func TestPrintColumns(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printColumns(&out, map[types.Status][]types.Task{
		types.StatusTodo: {{ID: 4, Title: "Write docs", Status: types.StatusTodo}},
	})
	s := out.String()
	if !strings.Contains(s, "To Do (1)") || !strings.Contains(s, "0. #4 Write docs") || !strings.Contains(s, "Done (0)") {
		t.Errorf("Unexpected board output:\n%s", s)
	}
}

func TestConfigPathOutput(t *testing.T) {
	env := testutil.SetupTestEnv(t)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	runConfigPath(cmd, nil)

	if !strings.Contains(out.String(), env.GlobalDir) {
		t.Errorf("Expected global path under test HOME, got %q", out.String())
	}
}

func TestConfigInitWritesOnce(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	path := filepath.Join(env.GlobalDir, "config.yaml")

	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().Bool("force", false, "")
		cmd.SetOut(&bytes.Buffer{})
		return cmd
	}

	if err := runConfigInit(newCmd(), nil); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !env.FileExists(path) {
		t.Fatalf("Expected %s to be written", path)
	}
	if err := runConfigInit(newCmd(), nil); err == nil {
		t.Error("Expected second init without --force to fail")
	}

	force := newCmd()
	force.Flags().Set("force", "true")
	if err := runConfigInit(force, nil); err != nil {
		t.Errorf("Expected --force to overwrite, got %v", err)
	}
}

func TestConfigShowMergesGlobalFile(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	env.CreateGlobalFile("config.yaml", "api:\n  base_url: http://tasks.example.com/\n")

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	if err := runConfigShow(cmd, nil); err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out.String(), "base_url: http://tasks.example.com\n") {
		t.Errorf("Expected global base_url without trailing slash, got:\n%s", out.String())
	}
}
