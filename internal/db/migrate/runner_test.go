package migrate

import (
	"errors"
	"strings"
	"testing"
)

func TestRun_EmptyDSN(t *testing.T) {
	err := Run("", "up")
	if err == nil {
		t.Fatal("Run with empty DSN should return error")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL is not set") {
		t.Errorf("error = %q, should mention DATABASE_URL", err.Error())
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	testCases := []struct {
		name      string
		direction string
	}{
		{"empty", ""},
		{"invalid", "invalid"},
		{"upcase", "UP"},
		{"mixed", "Up"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Run("postgres://localhost/test", tc.direction)
			if err == nil {
				t.Fatalf("Run with direction %q should return error", tc.direction)
			}
			if !strings.Contains(err.Error(), "direction must be up or down") {
				t.Errorf("error = %q, should be a direction error", err.Error())
			}
		})
	}
}

func TestRun_InvalidDSN(t *testing.T) {
	testCases := []struct {
		name string
		dsn  string
	}{
		{"invalid format", "invalid-dsn"},
		{"missing driver", "://localhost/test"},
		{"malformed", "postgres://"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Run(tc.dsn, "up"); err == nil {
				t.Errorf("Run with invalid DSN %q should return error", tc.dsn)
			}
		})
	}
}

func TestErrNoChange_Exported(t *testing.T) {
	if ErrNoChange == nil {
		t.Fatal("ErrNoChange should not be nil")
	}
	// Callers (cmd/migrate) rely on errors.Is to treat it as success.
	if !errors.Is(ErrNoChange, ErrNoChange) {
		t.Error("ErrNoChange should be errors.Is compatible")
	}
}
