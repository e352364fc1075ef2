package confloader

import (
	"path/filepath"
	"testing"
)

type testConfig struct {
	Storage struct {
		Engine  string `koanf:"engine"`
		DataDir string `koanf:"data_dir"`
		Redis   struct {
			Addr string `koanf:"addr"`
			DB   int    `koanf:"db"`
		} `koanf:"redis"`
	} `koanf:"storage"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func testDefaults() map[string]any {
	return map[string]any{
		"storage.engine":     "memory",
		"storage.data_dir":   "data",
		"storage.redis.addr": "localhost:6379",
		"log.level":          "info",
	}
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/qv.yaml"))
	if l.envPrefix != "TEST_" || l.FilePath() != "/etc/qv.yaml" {
		t.Errorf("options not applied: %+v", l)
	}
}

func TestLoader_Defaults(t *testing.T) {
	var cfg testConfig
	if err := NewLoader(WithDefaults(testDefaults())).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Engine != "memory" || cfg.Storage.DataDir != "data" || cfg.Storage.Redis.Addr != "localhost:6379" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoader_Priority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quickvote.yaml")
	writeFile(t, path, `
storage:
  engine: redis
  redis:
    addr: from-file:6379
    db: 2
log:
  level: warn
`)
	t.Setenv("QUICKVOTE_STORAGE_REDIS_ADDR", "from-env:6379")

	var cfg testConfig
	l := NewLoader(WithDefaults(testDefaults()), WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Redis.Addr != "from-env:6379" {
		t.Errorf("redis.addr = %q, env should win", cfg.Storage.Redis.Addr)
	}
	if cfg.Storage.Engine != "redis" || cfg.Storage.Redis.DB != 2 {
		t.Errorf("file values lost: %+v", cfg.Storage)
	}
	if cfg.Storage.DataDir != "data" {
		t.Errorf("data_dir = %q, default should survive", cfg.Storage.DataDir)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false")
	}
}

func TestLoader_EnvUnderscoreKeys(t *testing.T) {
	t.Setenv("QUICKVOTE_STORAGE_DATA_DIR", "/var/lib/quickvote")
	t.Setenv("QUICKVOTE_LOG_LEVEL", "debug")

	var cfg testConfig
	if err := NewLoader(WithDefaults(testDefaults())).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.DataDir != "/var/lib/quickvote" {
		t.Errorf("data_dir = %q", cfg.Storage.DataDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
}

func TestLoader_EnvUnknownKey(t *testing.T) {
	t.Setenv("MYAPP_SERVER_PORT", "9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if port := l.GetString("server.port"); port != "9090" {
		t.Errorf("server.port = %q, want 9090", port)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
	if err := l.LoadFile("/nonexistent/quickvote.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"metrics.enabled": true}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if !l.GetBool("metrics.enabled") {
		t.Error("metrics.enabled should be true")
	}
}

func TestLoader_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quickvote.yaml")
	writeFile(t, path, "log:\n  level: info\n")

	l := NewLoader(WithDefaults(testDefaults()), WithConfigFile(path))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	writeFile(t, path, "log:\n  level: error\n")
	var next testConfig
	if err := l.Reload(&next); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if next.Log.Level != "error" {
		t.Errorf("log.level after reload = %q", next.Log.Level)
	}
	if next.Storage.Engine != "memory" {
		t.Errorf("defaults lost on reload: %+v", next.Storage)
	}
}

func TestLoader_EnvList(t *testing.T) {
	t.Setenv("QUICKVOTE_ORIGINS", "https://a.example, https://b.example,")

	l := NewLoader(WithDefaults(map[string]any{"origins": []string{"*"}}))
	var cfg struct {
		Origins []string `koanf:"origins"`
	}
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Origins) != 2 || cfg.Origins[0] != "https://a.example" || cfg.Origins[1] != "https://b.example" {
		t.Errorf("Origins = %q", cfg.Origins)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a , ,b")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitList() = %q", got)
	}
}
