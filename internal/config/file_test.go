package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPathJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"email":"a@b.c","access_token":"tok","paid":true,"timeout_seconds":120}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadPath(path)
	if err != nil {
		t.Fatalf("LoadPath() error = %v", err)
	}
	if cfg.Email != "a@b.c" || cfg.AccessToken != "tok" || !cfg.Paid || cfg.TimeoutSeconds != 120 {
		t.Errorf("LoadPath() = %+v", cfg)
	}
}

func TestLoadPathYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "email: a@b.c\nsession_token: tok\npaid: true\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadPath(path)
	if err != nil {
		t.Fatalf("LoadPath() error = %v", err)
	}
	if cfg.Email != "a@b.c" || cfg.SessionToken != "tok" || !cfg.Paid {
		t.Errorf("LoadPath() = %+v", cfg)
	}
}

func TestLoadPathInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadPath(path); err == nil {
		t.Error("LoadPath() error = nil for broken file")
	}
}

func TestLoadDiscoversHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	// Run from an empty directory so no local config shadows the home one.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if _, err := Load(); !errors.Is(err, ErrNoConfigFile) {
		t.Fatalf("Load() error = %v, want ErrNoConfigFile", err)
	}

	dir := filepath.Join(home, ".config", "chatgpt")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"access_token":"tok"}`), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AccessToken != "tok" {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoadPrefersXDGOverHome(t *testing.T) {
	home := t.TempDir()
	xdg := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdg)

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	for base, token := range map[string]string{
		filepath.Join(home, ".config", "chatgpt"): "home-token",
		filepath.Join(xdg, "chatgpt"):             "xdg-token",
	} {
		if err := os.MkdirAll(base, 0700); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		content := `{"access_token":"` + token + `"}`
		if err := os.WriteFile(filepath.Join(base, "config.json"), []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AccessToken != "xdg-token" {
		t.Errorf("AccessToken = %q, want the XDG config to win", cfg.AccessToken)
	}
}
