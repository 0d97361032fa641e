package config

import (
	"os"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != defaultServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, defaultServerPort)
	}
	if cfg.Server.Host != defaultServerHost {
		t.Errorf("Server.Host = %s, want %s", cfg.Server.Host, defaultServerHost)
	}

	if cfg.Database.Path != defaultDatabasePath {
		t.Errorf("Database.Path = %s, want %s", cfg.Database.Path, defaultDatabasePath)
	}
	if cfg.Database.EnableWAL != defaultDatabaseEnableWAL {
		t.Errorf("Database.EnableWAL = %v, want %v", cfg.Database.EnableWAL, defaultDatabaseEnableWAL)
	}

	if cfg.Logging.Level != defaultLogLevel {
		t.Errorf("Logging.Level = %s, want %s", cfg.Logging.Level, defaultLogLevel)
	}
	if cfg.Logging.Pretty != defaultLogPretty {
		t.Errorf("Logging.Pretty = %v, want %v", cfg.Logging.Pretty, defaultLogPretty)
	}

	if cfg.Playout.LookaheadHours != defaultLookaheadHours {
		t.Errorf("Playout.LookaheadHours = %d, want %d", cfg.Playout.LookaheadHours, defaultLookaheadHours)
	}
	if cfg.Playout.RebuildInterval != defaultRebuildInterval {
		t.Errorf("Playout.RebuildInterval = %v, want %v", cfg.Playout.RebuildInterval, defaultRebuildInterval)
	}
	if cfg.Playout.DurationRetries != defaultDurationRetries {
		t.Errorf("Playout.DurationRetries = %d, want %d", cfg.Playout.DurationRetries, defaultDurationRetries)
	}
	if cfg.Playout.RerunRetries != defaultRerunRetries {
		t.Errorf("Playout.RerunRetries = %d, want %d", cfg.Playout.RerunRetries, defaultRerunRetries)
	}
	if cfg.Playout.GapRetries != defaultGapRetries {
		t.Errorf("Playout.GapRetries = %d, want %d", cfg.Playout.GapRetries, defaultGapRetries)
	}
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		Database: DatabaseConfig{
			Path:              "./data/castaway.db",
			ConnectionTimeout: defaultDatabaseConnectionTimeout,
			EnableWAL:         true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
		Playout: PlayoutConfig{
			LookaheadHours:  defaultLookaheadHours,
			RebuildInterval: defaultRebuildInterval,
			DurationRetries: defaultDurationRetries,
			RerunRetries:    defaultRerunRetries,
			GapRetries:      defaultGapRetries,
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid server port (too low)",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid server port (too high)",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "invalid lookahead hours",
			mutate:  func(c *Config) { c.Playout.LookaheadHours = 0 },
			wantErr: true,
		},
		{
			name:    "invalid rebuild interval",
			mutate:  func(c *Config) { c.Playout.RebuildInterval = 0 },
			wantErr: true,
		},
		{
			name:    "invalid duration retries",
			mutate:  func(c *Config) { c.Playout.DurationRetries = 0 },
			wantErr: true,
		},
		{
			name:    "invalid rerun retries",
			mutate:  func(c *Config) { c.Playout.RerunRetries = -1 },
			wantErr: true,
		},
		{
			name:    "invalid gap retries",
			mutate:  func(c *Config) { c.Playout.GapRetries = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlayoutConfigEnvVars(t *testing.T) {
	_ = os.Setenv("CASTAWAY_PLAYOUT_LOOKAHEADHOURS", "72")
	_ = os.Setenv("CASTAWAY_PLAYOUT_REBUILDINTERVAL", "30s")
	_ = os.Setenv("CASTAWAY_PLAYOUT_DURATIONRETRIES", "8")
	defer func() {
		_ = os.Unsetenv("CASTAWAY_PLAYOUT_LOOKAHEADHOURS")
		_ = os.Unsetenv("CASTAWAY_PLAYOUT_REBUILDINTERVAL")
		_ = os.Unsetenv("CASTAWAY_PLAYOUT_DURATIONRETRIES")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Playout.LookaheadHours != 72 {
		t.Errorf("Playout.LookaheadHours = %d, want 72", cfg.Playout.LookaheadHours)
	}
	if cfg.Playout.RebuildInterval.Seconds() != 30 {
		t.Errorf("Playout.RebuildInterval = %v, want 30s", cfg.Playout.RebuildInterval)
	}
	if cfg.Playout.DurationRetries != 8 {
		t.Errorf("Playout.DurationRetries = %d, want 8", cfg.Playout.DurationRetries)
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name  string
		slice []string
		item  string
		want  bool
	}{
		{
			name:  "item exists",
			slice: []string{"one", "two", "three"},
			item:  "two",
			want:  true,
		},
		{
			name:  "item does not exist",
			slice: []string{"one", "two", "three"},
			item:  "four",
			want:  false,
		},
		{
			name:  "empty slice",
			slice: []string{},
			item:  "one",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contains(tt.slice, tt.item)
			if got != tt.want {
				t.Errorf("contains() = %v, want %v", got, tt.want)
			}
		})
	}
}
