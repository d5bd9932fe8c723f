package clip

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupEmptyDirs(t *testing.T) {
	root := t.TempDir()
	today := time.Now().Format(time.DateOnly)
	for _, d := range []string{"2020-01-01", "2020-01-02", today} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	pending := filepath.Join(root, "2020-01-02", "pothole_1.avi")
	if err := os.WriteFile(pending, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cleanupEmptyDirs(root)

	if _, err := os.Stat(filepath.Join(root, "2020-01-01")); !os.IsNotExist(err) {
		t.Error("empty date dir should be removed")
	}
	if _, err := os.Stat(pending); err != nil {
		t.Error("pending artifact must never be deleted")
	}
	if _, err := os.Stat(filepath.Join(root, today)); err != nil {
		t.Error("today's dir must be kept")
	}
}

func TestCleanupEmptyCalibrationDirs(t *testing.T) {
	root := t.TempDir()
	today := time.Now().Format(time.DateOnly)
	for _, d := range []string{
		filepath.Join("2020-01-01", "calibration"),
		filepath.Join("2020-01-02", "calibration"),
		filepath.Join(today, "calibration"),
	} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	pending := filepath.Join(root, "2020-01-02", "calibration", "calib_1.jpg")
	if err := os.WriteFile(pending, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cleanupEmptyDirs(root)

	if _, err := os.Stat(filepath.Join(root, "2020-01-01")); !os.IsNotExist(err) {
		t.Error("date dir holding only an empty calibration dir should be removed")
	}
	if _, err := os.Stat(pending); err != nil {
		t.Error("pending calibration frame must be kept")
	}
	if _, err := os.Stat(filepath.Join(root, today, "calibration")); err != nil {
		t.Error("today's dir must be kept")
	}
}

func TestDiskUsage(t *testing.T) {
	usage, err := DiskUsage(t.TempDir())
	if err != nil {
		t.Skipf("disk usage unavailable: %v", err)
	}
	if usage < 0 || usage > 100 {
		t.Fatalf("usage = %v", usage)
	}
}
