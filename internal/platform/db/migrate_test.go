package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigrations(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestParseVersion(t *testing.T) {
	cases := []struct {
		name    string
		version int
		ok      bool
	}{
		{"001_patients.sql", 1, true},
		{"012_notes.sql", 12, true},
		{"readme.sql", 0, false},
		{"abc_bad.sql", 0, false},
		{"001_patients.txt", 0, false},
	}
	for _, tc := range cases {
		version, ok := parseVersion(tc.name)
		if version != tc.version || ok != tc.ok {
			t.Errorf("parseVersion(%q) = (%d, %v), want (%d, %v)", tc.name, version, ok, tc.version, tc.ok)
		}
	}
}

func TestLoadMigrations_ParsesVersionedFiles(t *testing.T) {
	dir := t.TempDir()
	writeMigrations(t, dir, map[string]string{
		"001_patients.sql":      "CREATE TABLE patients (id UUID PRIMARY KEY);",
		"002_consultations.sql": "CREATE TABLE consultations (id UUID PRIMARY KEY);",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_patients.sql" {
		t.Errorf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[0].SQL != "CREATE TABLE patients (id UUID PRIMARY KEY);" {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
}

func TestLoadMigrations_SortsByVersionNotName(t *testing.T) {
	dir := t.TempDir()
	writeMigrations(t, dir, map[string]string{
		"010_notes.sql":         "SELECT 10;",
		"002_consultations.sql": "SELECT 2;",
		"001_patients.sql":      "SELECT 1;",
		"005_exams.sql":         "SELECT 5;",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := []int{1, 2, 5, 10}
	if len(migrations) != len(want) {
		t.Fatalf("expected %d migrations, got %d", len(want), len(migrations))
	}
	for i, v := range want {
		if migrations[i].Version != v {
			t.Errorf("migration[%d]: expected version %d, got %d", i, v, migrations[i].Version)
		}
	}
}

func TestLoadMigrations_SkipsUnversionedFiles(t *testing.T) {
	dir := t.TempDir()
	writeMigrations(t, dir, map[string]string{
		"001_patients.sql": "SELECT 1;",
		"readme.sql":       "-- no version prefix",
		"notes.txt":        "not sql",
		"abc_bad.sql":      "-- non-numeric prefix",
		"002_exams.sql":    "SELECT 2;",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 valid migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("unexpected versions: %d, %d", migrations[0].Version, migrations[1].Version)
	}
}

func TestLoadMigrations_EmptyDir(t *testing.T) {
	migrations, err := NewMigrator(nil, t.TempDir()).LoadMigrations()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(migrations) != 0 {
		t.Errorf("expected no migrations, got %d", len(migrations))
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	if _, err := NewMigrator(nil, filepath.Join(t.TempDir(), "absent")).LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}

// Status joins the loaded files against the applied set; exercise that join
// without a database by building statuses the same way Status does.
func TestMigrationStatus_AppliedVsPending(t *testing.T) {
	dir := t.TempDir()
	writeMigrations(t, dir, map[string]string{
		"001_patients.sql":      "CREATE TABLE patients (id UUID);",
		"002_consultations.sql": "CREATE TABLE consultations (id UUID);",
		"003_prescriptions.sql": "CREATE TABLE prescriptions (id UUID);",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	applied := map[int]bool{1: true}
	var statuses []MigrationStatus
	for _, mig := range migrations {
		statuses = append(statuses, MigrationStatus{
			Version: mig.Version,
			Name:    mig.Name,
			Applied: applied[mig.Version],
		})
	}

	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Applied {
		t.Error("expected 001 applied")
	}
	if statuses[1].Applied || statuses[2].Applied {
		t.Error("expected 002 and 003 pending")
	}
	if statuses[1].AppliedAt != nil || statuses[2].AppliedAt != nil {
		t.Error("expected nil AppliedAt for pending migrations")
	}
	if statuses[2].Name != "003_prescriptions.sql" {
		t.Errorf("unexpected name: %s", statuses[2].Name)
	}
}
