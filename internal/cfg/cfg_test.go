package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults with no environment",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Host != "0.0.0.0" {
					t.Errorf("expected default Host 0.0.0.0, got %s", settings.Host)
				}
				if settings.Port != 8000 {
					t.Errorf("expected default Port 8000, got %d", settings.Port)
				}
				if settings.ModelPath != "models/heart_pipeline.json" {
					t.Errorf("expected default ModelPath, got %s", settings.ModelPath)
				}
				if settings.PredictTimeout != 2*time.Second {
					t.Errorf("expected default PredictTimeout 2s, got %v", settings.PredictTimeout)
				}
				if settings.Monitoring {
					t.Error("expected Monitoring disabled by default")
				}
				if settings.DataPath != "" {
					t.Errorf("expected empty DataPath, got %s", settings.DataPath)
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"BIND_HOST":       "127.0.0.1",
				"PORT":            "9000",
				"MODEL_PATH":      "/opt/models/pipeline.json",
				"PREDICT_TIMEOUT": "500ms",
				"MONITORING":      "true",
				"DASHBOARD_PORT":  "9090",
				"DATA_PATH":       "/var/lib/cardiopredict",
				"LOG_LEVEL":       "debug",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Host != "127.0.0.1" {
					t.Errorf("expected Host 127.0.0.1, got %s", settings.Host)
				}
				if settings.Port != 9000 {
					t.Errorf("expected Port 9000, got %d", settings.Port)
				}
				if settings.ModelPath != "/opt/models/pipeline.json" {
					t.Errorf("expected ModelPath /opt/models/pipeline.json, got %s", settings.ModelPath)
				}
				if settings.PredictTimeout != 500*time.Millisecond {
					t.Errorf("expected PredictTimeout 500ms, got %v", settings.PredictTimeout)
				}
				if !settings.Monitoring {
					t.Error("expected Monitoring enabled")
				}
				if settings.DashboardPort != 9090 {
					t.Errorf("expected DashboardPort 9090, got %d", settings.DashboardPort)
				}
				if settings.LogLevel != "debug" {
					t.Errorf("expected LogLevel debug, got %s", settings.LogLevel)
				}
			},
		},
		{
			name: "port out of range",
			envVars: map[string]string{
				"PORT": "80",
			},
			wantErr: true,
		},
		{
			name: "predict timeout too long",
			envVars: map[string]string{
				"PREDICT_TIMEOUT": "10m",
			},
			wantErr: true,
		},
		{
			name: "dashboard port colliding with server port",
			envVars: map[string]string{
				"PORT":           "8000",
				"MONITORING":     "true",
				"DASHBOARD_PORT": "8000",
			},
			wantErr: true,
		},
		{
			name: "unknown log level",
			envVars: map[string]string{
				"LOG_LEVEL": "verbose",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear all environment variables first
			clearTestEnv(t)

			// Set test environment variables
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
server:
  host: "127.0.0.1"
  port: 9000

model:
  path: "artifacts/heart.json"
  deployRoot: "/srv/cardiopredict"
  predictTimeout: "1s"
  fetchTimeout: "10s"

monitoring:
  enabled: true
  dashboardPort: 9090

system:
  dataPath: "/var/lib/cardiopredict"
  logLevel: "warn"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Host != "127.0.0.1" {
					t.Errorf("expected Host 127.0.0.1, got %s", settings.Host)
				}
				if settings.Port != 9000 {
					t.Errorf("expected Port 9000, got %d", settings.Port)
				}
				if settings.ModelPath != "artifacts/heart.json" {
					t.Errorf("expected ModelPath artifacts/heart.json, got %s", settings.ModelPath)
				}
				if settings.DeployRoot != "/srv/cardiopredict" {
					t.Errorf("expected DeployRoot /srv/cardiopredict, got %s", settings.DeployRoot)
				}
				if settings.PredictTimeout != time.Second {
					t.Errorf("expected PredictTimeout 1s, got %v", settings.PredictTimeout)
				}
				if settings.FetchTimeout != 10*time.Second {
					t.Errorf("expected FetchTimeout 10s, got %v", settings.FetchTimeout)
				}
				if !settings.Monitoring {
					t.Error("expected Monitoring enabled")
				}
				if settings.LogLevel != "warn" {
					t.Errorf("expected LogLevel warn, got %s", settings.LogLevel)
				}
			},
		},
		{
			name: "YAML with env overrides",
			yamlContent: `
server:
  host: "0.0.0.0"
  port: 8000
model:
  path: "models/heart_pipeline.json"
  predictTimeout: "2s"
  fetchTimeout: "30s"
`,
			envOverrides: map[string]string{
				"MODEL_PATH": "/override/pipeline.json",
				"PORT":       "9100",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "/override/pipeline.json" {
					t.Errorf("expected env override ModelPath, got %s", settings.ModelPath)
				}
				if settings.Port != 9100 {
					t.Errorf("expected env override Port 9100, got %d", settings.Port)
				}
				if settings.Host != "0.0.0.0" {
					t.Errorf("expected YAML Host 0.0.0.0, got %s", settings.Host)
				}
			},
		},
		{
			name: "missing durations fall back to defaults",
			yamlContent: `
server:
  port: 8000
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.PredictTimeout != 2*time.Second {
					t.Errorf("expected default PredictTimeout 2s, got %v", settings.PredictTimeout)
				}
				if settings.FetchTimeout != 30*time.Second {
					t.Errorf("expected default FetchTimeout 30s, got %v", settings.FetchTimeout)
				}
			},
		},
		{
			name:        "invalid YAML",
			yamlContent: `invalid: yaml: content: [`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			clearTestEnv(t)

			// Set environment overrides
			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			// Create temporary YAML file
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o644)
			if err != nil {
				t.Fatalf("failed to write test config file: %v", err)
			}

			settings, err := loadFromYAML(configPath)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("load from env when no config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("MODEL_PATH", "env_model.json")

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.ModelPath != "env_model.json" {
			t.Errorf("expected ModelPath env_model.json, got %s", settings.ModelPath)
		}
	})

	t.Run("load from YAML when config file specified", func(t *testing.T) {
		clearTestEnv(t)

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.yaml")
		content := `
server:
  port: 9200
model:
  path: "yaml_model.json"
  predictTimeout: "2s"
  fetchTimeout: "30s"
`
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write test config file: %v", err)
		}
		t.Setenv("CONFIG_FILE", configPath)

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.ModelPath != "yaml_model.json" {
			t.Errorf("expected ModelPath yaml_model.json, got %s", settings.ModelPath)
		}
		if settings.Port != 9200 {
			t.Errorf("expected Port 9200, got %d", settings.Port)
		}
	})

	t.Run("missing config file is an error", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

		if _, err := Load(); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestResolveModelPath(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     string
	}{
		{
			name:     "relative path joins deploy root",
			settings: Settings{ModelPath: "models/heart.json", DeployRoot: "/srv/app"},
			want:     filepath.Join("/srv/app", "models/heart.json"),
		},
		{
			name:     "absolute path passes through",
			settings: Settings{ModelPath: "/opt/heart.json", DeployRoot: "/srv/app"},
			want:     "/opt/heart.json",
		},
		{
			name:     "remote URL passes through",
			settings: Settings{ModelPath: "https://models.example.com/heart.json", DeployRoot: "/srv/app"},
			want:     "https://models.example.com/heart.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.ResolveModelPath(); got != tt.want {
				t.Errorf("ResolveModelPath() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	settings := Settings{Host: "127.0.0.1", Port: 8000}
	if got := settings.Addr(); got != "127.0.0.1:8000" {
		t.Errorf("Addr() = %s, want 127.0.0.1:8000", got)
	}
}

// clearTestEnv clears potentially conflicting environment variables
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "BIND_HOST", "PORT", "MODEL_PATH", "DEPLOY_ROOT",
		"DATA_PATH", "PREDICT_TIMEOUT", "FETCH_TIMEOUT", "MONITORING",
		"DASHBOARD_PORT", "LOG_LEVEL",
	}

	for _, env := range envVars {
		if val := os.Getenv(env); val != "" {
			t.Setenv(env, "")
		}
	}
}
