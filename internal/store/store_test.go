package store

import (
	"testing"
	"time"

	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_UserRoundTrip(t *testing.T) {
	st := newTestStore(t)

	got, err := st.GetUser("42")
	if err != nil {
		t.Fatalf("get unknown user: %v", err)
	}
	if got != nil {
		t.Fatal("unknown user should be nil")
	}

	user := &User{
		ID:              "42",
		Username:        "alice",
		FirstName:       "Alice",
		Role:            tracker.RoleUser,
		DefaultPriority: tracker.PriorityMedium,
		DefaultType:     tracker.TypeTask,
	}
	if err := st.UpsertUser(user); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err = st.GetUser("42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected user")
	}
	if got.Username != "alice" || got.Role != tracker.RoleUser {
		t.Errorf("unexpected user: %+v", got)
	}
	if got.DefaultPriority != tracker.PriorityMedium || got.DefaultType != tracker.TypeTask {
		t.Errorf("defaults not persisted: %+v", got)
	}
}

func TestStore_UpsertUserKeepsDefaults(t *testing.T) {
	st := newTestStore(t)

	user := &User{ID: "42", Username: "alice", Role: tracker.RoleUser,
		DefaultPriority: tracker.PriorityHigh, DefaultType: tracker.TypeBug}
	if err := st.UpsertUser(user); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.SetUserDefaults("42", "PROJ", "", ""); err != nil {
		t.Fatalf("set defaults: %v", err)
	}

	// Re-upserting on a later contact must not reset stored preferences.
	again := &User{ID: "42", Username: "alice_renamed", Role: tracker.RoleUser,
		DefaultPriority: tracker.PriorityMedium, DefaultType: tracker.TypeTask}
	if err := st.UpsertUser(again); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	got, err := st.GetUser("42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "alice_renamed" {
		t.Errorf("username should refresh, got %q", got.Username)
	}
	if got.DefaultProject != "PROJ" {
		t.Errorf("default project lost on re-upsert: %q", got.DefaultProject)
	}
	if got.DefaultPriority != tracker.PriorityHigh || got.DefaultType != tracker.TypeBug {
		t.Errorf("preferences lost on re-upsert: %+v", got)
	}
}

func TestStore_SetUserDefaultsPreservesEmptyFields(t *testing.T) {
	st := newTestStore(t)

	if err := st.UpsertUser(&User{ID: "7", Role: tracker.RoleUser,
		DefaultPriority: tracker.PriorityMedium, DefaultType: tracker.TypeTask}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.SetUserDefaults("7", "WEB", tracker.PriorityHigh, tracker.TypeBug); err != nil {
		t.Fatalf("set defaults: %v", err)
	}

	// Switching only the project keeps priority and type.
	if err := st.SetUserDefaults("7", "API", "", ""); err != nil {
		t.Fatalf("set project only: %v", err)
	}

	got, _ := st.GetUser("7")
	if got.DefaultProject != "API" {
		t.Errorf("expected project API, got %q", got.DefaultProject)
	}
	if got.DefaultPriority != tracker.PriorityHigh || got.DefaultType != tracker.TypeBug {
		t.Errorf("priority/type should be preserved: %+v", got)
	}
}

func TestStore_SetUserRole(t *testing.T) {
	st := newTestStore(t)

	if err := st.SetUserRole("missing", tracker.RoleAdmin); err == nil {
		t.Error("setting role of unknown user should fail")
	}

	if err := st.UpsertUser(&User{ID: "9", Role: tracker.RoleUser,
		DefaultPriority: tracker.PriorityMedium, DefaultType: tracker.TypeTask}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.SetUserRole("9", tracker.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}

	got, _ := st.GetUser("9")
	if got.Role != tracker.RoleAdmin {
		t.Errorf("expected admin, got %s", got.Role)
	}
}

func TestStore_ProjectLifecycle(t *testing.T) {
	st := newTestStore(t)

	project := &Project{Key: "PROJ", Name: "Main", CreatedBy: "42"}
	if err := st.UpsertProject(project); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := st.GetProject("PROJ")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || !got.IsActive {
		t.Fatalf("expected active project, got %+v", got)
	}

	if err := st.DeactivateProject("PROJ"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := st.ListProjects(true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("deactivated project still listed as active")
	}

	all, err := st.ListProjects(false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("deactivated project should survive in full list, got %d", len(all))
	}

	// Re-registering the key reactivates it.
	if err := st.UpsertProject(&Project{Key: "PROJ", Name: "Main v2", CreatedBy: "42"}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, _ = st.GetProject("PROJ")
	if !got.IsActive || got.Name != "Main v2" {
		t.Errorf("expected reactivated renamed project, got %+v", got)
	}
}

func TestStore_MarkProjectSynced(t *testing.T) {
	st := newTestStore(t)

	if err := st.UpsertProject(&Project{Key: "PROJ", Name: "Main"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, _ := st.GetProject("PROJ")
	if got.SyncedAt != nil {
		t.Fatal("fresh project should have no sync time")
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := st.MarkProjectSynced("PROJ", at); err != nil {
		t.Fatalf("mark synced: %v", err)
	}

	got, _ = st.GetProject("PROJ")
	if got.SyncedAt == nil {
		t.Fatal("expected sync time")
	}
}

func TestStore_IssueCacheAndFilters(t *testing.T) {
	st := newTestStore(t)

	issues := []*Issue{
		{RemoteKey: "PROJ-1", ProjectKey: "PROJ", Summary: "first", Priority: tracker.PriorityHigh, Type: tracker.TypeBug, Status: tracker.StatusToDo, ReporterID: "42"},
		{RemoteKey: "PROJ-2", ProjectKey: "PROJ", Summary: "second", Priority: tracker.PriorityLow, Type: tracker.TypeTask, Status: tracker.StatusDone, ReporterID: "7"},
		{RemoteKey: "WEB-1", ProjectKey: "WEB", Summary: "third", Priority: tracker.PriorityMedium, Type: tracker.TypeStory, Status: tracker.StatusToDo, ReporterID: "42"},
	}
	for _, issue := range issues {
		if err := st.CacheIssue(issue); err != nil {
			t.Fatalf("cache %s: %v", issue.RemoteKey, err)
		}
	}

	byProject, err := st.ListCachedIssues(IssueFilter{ProjectKey: "PROJ"})
	if err != nil {
		t.Fatalf("list by project: %v", err)
	}
	if len(byProject) != 2 {
		t.Errorf("expected 2 PROJ issues, got %d", len(byProject))
	}

	byReporter, err := st.ListCachedIssues(IssueFilter{ReporterID: "42"})
	if err != nil {
		t.Fatalf("list by reporter: %v", err)
	}
	if len(byReporter) != 2 {
		t.Errorf("expected 2 issues by reporter 42, got %d", len(byReporter))
	}

	// Re-caching the same remote key refreshes instead of duplicating.
	if err := st.CacheIssue(&Issue{RemoteKey: "PROJ-1", ProjectKey: "PROJ", Summary: "first updated", Priority: tracker.PriorityHigh, Type: tracker.TypeBug, Status: tracker.StatusInProgress, ReporterID: "42"}); err != nil {
		t.Fatalf("recache: %v", err)
	}
	refreshed, err := st.ListCachedIssues(IssueFilter{ProjectKey: "PROJ"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(refreshed) != 2 {
		t.Fatalf("recache duplicated the issue: %d rows", len(refreshed))
	}
	for _, issue := range refreshed {
		if issue.RemoteKey == "PROJ-1" && issue.Status != tracker.StatusInProgress {
			t.Errorf("recache did not refresh status: %s", issue.Status)
		}
	}
}
