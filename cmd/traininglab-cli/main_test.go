package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const easyZWO = `<workout_file>
  <name>Easy Spin</name>
  <workout>
    <Warmup Duration="600" PowerLow="0.5" PowerHigh="0.65"/>
    <SteadyState Duration="1800" Power="0.65"/>
  </workout>
</workout_file>`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestZonesCommand verifies watt ranges are printed for the given FTP.
func TestZonesCommand(t *testing.T) {
	out, err := run(t, "zones", "--ftp", "200")
	if err != nil {
		t.Fatalf("zones: %v", err)
	}
	if lines := strings.Count(out, "\n"); lines != 7 {
		t.Errorf("printed %d lines, want 7", lines)
	}
	if !strings.Contains(out, "Endurance") || !strings.Contains(out, "122- 150 W") {
		t.Errorf("zone 2 missing from output:\n%s", out)
	}

	if _, err := run(t, "zones"); err == nil {
		t.Error("zones without --ftp should fail")
	}
}

// TestGenerateCommand verifies a description compiles to the chosen format.
func TestGenerateCommand(t *testing.T) {
	out, err := run(t, "generate", "--format", "mrc", "--name", "Test Ride", "60 min endurance ride")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "FILE NAME = Test Ride") || !strings.Contains(out, "MINUTES PERCENT") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := run(t, "generate", "--format", "erg", "60 min endurance ride"); err == nil {
		t.Error("erg without --ftp should fail")
	}
}

// TestConvertAndValidateCommands verifies a ZWO file converts to ERG and
// passes validation.
func TestConvertAndValidateCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "easy.zwo")
	if err := os.WriteFile(path, []byte(easyZWO), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "convert", "--ftp", "200", path)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(out, "FTP = 200") || !strings.Contains(out, "40.00\t130") {
		t.Errorf("unexpected erg:\n%s", out)
	}

	out, err = run(t, "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, `"valid": true`) {
		t.Errorf("report = %s", out)
	}
}
