package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFixture(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	testContent := []byte("test fixture content")

	if err := os.WriteFile(testFile, testContent, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := LoadFixture(t, testFile)
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.json")

	if err := os.WriteFile(testFile, []byte(`{"query":"music","filters":{"category":"dance","limit":10}}`), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	var result struct {
		Query   string         `json:"query"`
		Filters map[string]any `json:"filters"`
	}
	LoadFixtureJSON(t, testFile, &result)

	if result.Query != "music" {
		t.Errorf("expected query=music, got %v", result.Query)
	}
	if result.Filters["limit"] != float64(10) { // JSON unmarshals numbers as float64
		t.Errorf("expected limit=10, got %v", result.Filters["limit"])
	}
}

func TestFixturePath(t *testing.T) {
	if got := FixturePath("keys.json"); got != filepath.Join("testdata", "keys.json") {
		t.Errorf("unexpected fixture path %q", got)
	}
}

func TestClock(t *testing.T) {
	start := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	if !clock.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, clock.Now())
	}

	clock.Advance(1500 * time.Millisecond)
	if got := clock.Now().Sub(start); got != 1500*time.Millisecond {
		t.Errorf("expected clock to advance 1.5s, advanced %v", got)
	}
}

func TestClock_ZeroStart(t *testing.T) {
	clock := NewClock(time.Time{})
	if clock.Now().IsZero() {
		t.Error("expected a fixed non-zero start time")
	}
}
