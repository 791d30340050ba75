package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "8080" {
					t.Errorf("expected port 8080, got %s", cfg.Port)
				}
				if cfg.LogLevel != "info" {
					t.Errorf("expected log level info, got %s", cfg.LogLevel)
				}
				if cfg.LetterWeight != 0.8 {
					t.Errorf("expected letter weight 0.8, got %v", cfg.LetterWeight)
				}
				if cfg.DayWeight != 0.2 {
					t.Errorf("expected day weight 0.2, got %v", cfg.DayWeight)
				}
				if cfg.UpperBoundMargin != 1.15 {
					t.Errorf("expected upper bound margin 1.15, got %v", cfg.UpperBoundMargin)
				}
				if cfg.DefaultWeeklyRate != 2900 {
					t.Errorf("expected default weekly rate 2900, got %v", cfg.DefaultWeeklyRate)
				}
				if cfg.MinRateSamples != 3 {
					t.Errorf("expected min rate samples 3, got %d", cfg.MinRateSamples)
				}
				if cfg.DefaultP50Days != 150 || cfg.DefaultP80Days != 300 {
					t.Errorf("expected percentile defaults 150/300, got %d/%d", cfg.DefaultP50Days, cfg.DefaultP80Days)
				}
				if cfg.ConfidenceLevel != 0.8 {
					t.Errorf("expected confidence 0.8, got %v", cfg.ConfidenceLevel)
				}
				if cfg.StalenessThreshold != 48*time.Hour {
					t.Errorf("expected staleness threshold 48h, got %v", cfg.StalenessThreshold)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"PORT":                "9000",
				"LOG_LEVEL":           "debug",
				"LETTER_WEIGHT":       "0.7",
				"DAY_WEIGHT":          "0.3",
				"DEFAULT_WEEKLY_RATE": "3100",
				"ALLOWED_ORIGINS":     "http://example.com, http://test.com",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "9000" {
					t.Errorf("expected port 9000, got %s", cfg.Port)
				}
				if cfg.LetterWeight != 0.7 {
					t.Errorf("expected letter weight 0.7, got %v", cfg.LetterWeight)
				}
				if cfg.DefaultWeeklyRate != 3100 {
					t.Errorf("expected weekly rate 3100, got %v", cfg.DefaultWeeklyRate)
				}
				if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://test.com" {
					t.Errorf("expected trimmed origins, got %v", cfg.AllowedOrigins)
				}
			},
		},
		{
			name:    "invalid float",
			env:     map[string]string{"LETTER_WEIGHT": "abc"},
			wantErr: true,
		},
		{
			name:    "invalid int",
			env:     map[string]string{"RATE_WINDOW_WEEKS": "four"},
			wantErr: true,
		},
		{
			name:    "zero weekly rate rejected",
			env:     map[string]string{"DEFAULT_WEEKLY_RATE": "0"},
			wantErr: true,
		},
		{
			name:    "zero min samples rejected",
			env:     map[string]string{"MIN_RATE_SAMPLES": "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer os.Clearenv()

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
