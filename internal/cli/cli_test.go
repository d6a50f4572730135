package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ConfabulousDev/resume-insights/internal/api"
	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/dashboard"
	"github.com/ConfabulousDev/resume-insights/internal/models"
	"github.com/ConfabulousDev/resume-insights/internal/source"
	"github.com/ConfabulousDev/resume-insights/internal/testutil"
)

func testRecords() []models.AnalysisRecord {
	return []models.AnalysisRecord{
		{UserID: 1, ResumeID: 1, Filename: "a.pdf", UploadedAt: "2024-01-01", MatchScore: models.Float(80), StrongSkills: []string{"Go"}, WeakSkills: []string{"SQL"}},
		{UserID: 1, ResumeID: 2, Filename: "b.pdf", UploadedAt: "2024-02-01", MatchScore: models.Float(60), StrongSkills: []string{"Java"}, WeakSkills: []string{}},
	}
}

// setupServer starts a real API server over an in-memory source and points
// the CLI config at a temp file.
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("RESUMECTL_CONFIG_PATH", filepath.Join(t.TempDir(), "config.json"))

	src := source.Func(func(ctx context.Context, s *auth.Session) ([]models.AnalysisRecord, error) {
		if _, err := source.RequireIdentity(s); err != nil {
			return nil, err
		}
		var out []models.AnalysisRecord
		for _, r := range testRecords() {
			if r.UserID == s.UserID {
				out = append(out, r)
			}
		}
		return out, nil
	})
	srv := api.NewServer(dashboard.NewService(src), api.Deps{Revoker: auth.NewMemoryRevoker()}, api.Config{
		JWTSecret: testutil.TestJWTSecret,
	})
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(ts.Close)
	return ts
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func login(t *testing.T, ts *httptest.Server, userID int64) string {
	t.Helper()
	token := testutil.IssueToken(t, userID, "user@example.com")
	out, err := run(t, "login", "--token", token, "--server", ts.URL)
	if err != nil {
		t.Fatalf("login failed: %v\n%s", err, out)
	}
	return token
}

func TestConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	t.Setenv("RESUMECTL_CONFIG_PATH", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig on missing file: %v", err)
	}
	if cfg.Token != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}

	if err := SaveConfig(&Config{ServerURL: "http://x", Token: "tok"}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config permissions = %o, want 600", perm)
	}

	cfg, err = LoadConfig()
	if err != nil || cfg.Token != "tok" || cfg.ServerURL != "http://x" {
		t.Errorf("LoadConfig = %+v, %v", cfg, err)
	}

	if err := ClearConfig(); err != nil {
		t.Fatalf("ClearConfig: %v", err)
	}
	if err := ClearConfig(); err != nil {
		t.Errorf("second ClearConfig: %v", err)
	}
	if _, err := requireLogin(); err != ErrNotLoggedIn {
		t.Errorf("requireLogin after clear = %v, want ErrNotLoggedIn", err)
	}
}

func TestLogin(t *testing.T) {
	ts := setupServer(t)

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := run(t, "login", "--token", "not-a-jwt"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("rejects token without user", func(t *testing.T) {
		token := testutil.IssueToken(t, 0, "")
		if _, err := run(t, "login", "--token", token); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("stores credential", func(t *testing.T) {
		token := login(t, ts, 1)
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Token != token || cfg.ServerURL != ts.URL {
			t.Errorf("config = %+v", cfg)
		}
	})
}

func TestCommandsRequireLogin(t *testing.T) {
	setupServer(t)
	for _, cmd := range []string{"whoami", "dashboard", "export", "watch"} {
		t.Run(cmd, func(t *testing.T) {
			_, err := run(t, cmd)
			if err != ErrNotLoggedIn {
				t.Errorf("err = %v, want ErrNotLoggedIn", err)
			}
		})
	}
}

func TestWhoami(t *testing.T) {
	ts := setupServer(t)
	login(t, ts, 1)

	out, err := run(t, "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "User:   1") || !strings.Contains(out, "user@example.com") {
		t.Errorf("output = %q", out)
	}
}

func TestDashboardCommand(t *testing.T) {
	ts := setupServer(t)
	login(t, ts, 1)

	out, err := run(t, "dashboard")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	for _, want := range []string{"Resume Analytics", "2 of 2", "Avg match score:  70", "a.pdf", "Java", "SQL"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "dashboard", "--start", "2024-02-01", "--end", "2024-02-28")
	if err != nil {
		t.Fatalf("dashboard with range: %v", err)
	}
	if !strings.Contains(out, "1 of 2") || strings.Contains(out, "a.pdf") {
		t.Errorf("filtered output = %s", out)
	}

	if _, err := run(t, "dashboard", "--start", "yesterday"); err == nil {
		t.Error("expected error for bad date")
	}
}

func TestDashboardCommand_NoRecords(t *testing.T) {
	ts := setupServer(t)
	login(t, ts, 9)

	// User 9 has no records; the command succeeds with an empty dashboard.
	out, err := run(t, "dashboard")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !strings.Contains(out, "No records in this range.") {
		t.Errorf("output = %s", out)
	}
}

func TestExportCommand(t *testing.T) {
	ts := setupServer(t)
	login(t, ts, 1)
	dest := filepath.Join(t.TempDir(), "out", "resume_analytics.csv")

	if _, err := run(t, "export", "--out", dest); err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "Resume,Match Score,Strong Skills,Weak Skills\na.pdf,80,Go,SQL\nb.pdf,60,Java,"
	if string(got) != want {
		t.Errorf("export = %q, want %q", got, want)
	}

	empty := filepath.Join(t.TempDir(), "empty.csv")
	out, err := run(t, "export", "--out", empty, "--start", "2030-01-01")
	if err != nil {
		t.Fatalf("empty export: %v", err)
	}
	if !strings.Contains(out, "nothing exported") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Error("empty export should not create a file")
	}
}

func TestLogout(t *testing.T) {
	ts := setupServer(t)
	token := login(t, ts, 1)

	out, err := run(t, "logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(out, "Logged out.") {
		t.Errorf("output = %q", out)
	}
	if _, err := requireLogin(); err != ErrNotLoggedIn {
		t.Errorf("credential still stored: %v", err)
	}

	// The revoked token is rejected by the server.
	_, err = NewClient(&Config{ServerURL: ts.URL, Token: token}).Me(context.Background())
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Status != 401 {
		t.Errorf("Me with revoked token = %v", err)
	}

	out, err = run(t, "logout")
	if err != nil || !strings.Contains(out, "Not logged in.") {
		t.Errorf("second logout = %q, %v", out, err)
	}
}

func TestWatch(t *testing.T) {
	ts := setupServer(t)
	login(t, ts, 1)

	cfg, err := requireLogin()
	if err != nil {
		t.Fatal(err)
	}
	session, err := auth.DecodeUnverified(cfg.Token)
	if err != nil {
		t.Fatal(err)
	}
	ctrl := dashboard.NewController(source.NewHTTPSource(source.HTTPConfig{
		BaseURL: cfg.ServerURL,
		Path:    "/api/v1/analytics/records",
	}))
	ctrl.SetSession(session)

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := watch(ctx, cmd, ctrl, 50*time.Millisecond); err != nil {
		t.Fatalf("watch: %v", err)
	}

	if got := strings.Count(out.String(), "Resume Analytics"); got < 2 {
		t.Errorf("rendered %d times, want at least 2:\n%s", got, out.String())
	}
	if !strings.Contains(out.String(), "2 of 2") {
		t.Errorf("records not rendered:\n%s", out.String())
	}
}
