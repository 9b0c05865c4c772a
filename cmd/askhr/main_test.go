package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/askhr/askhr/internal/config"
)

func TestPrintTables(t *testing.T) {
	var buf bytes.Buffer
	if err := printTables(&buf); err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "hrms_departments ") {
			found = true
			if !strings.Contains(line, "departments") {
				t.Errorf("hrms_departments line lacks its alias: %q", line)
			}
		}
	}
	if !found {
		t.Error("hrms_departments not listed")
	}
}

func TestSetupLoggingLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		setupLogging(&config.Config{LogLevel: tt.in, Environment: "production"}, &buf)
		if got := zerolog.GlobalLevel(); got != tt.want {
			t.Errorf("level %q: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupLoggingFormat(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	prev := log.Logger
	defer func() { log.Logger = prev }()

	for _, env := range []string{"production", "development"} {
		var buf bytes.Buffer
		setupLogging(&config.Config{LogLevel: "info", Environment: env}, &buf)
		log.Info().Msg("hello")

		isJSON := strings.HasPrefix(buf.String(), "{")
		if want := env == "production"; isJSON != want {
			t.Errorf("%s: json output = %v, want %v (%q)", env, isJSON, want, buf.String())
		}
	}
}
