package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	cfg, err := loadConfig(&args{Strict: true, Lang: "1.7", Verbose: true})
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "1.7", cfg.Version)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = loadConfig(&args{Lang: "2.0"})
	assert.Error(t, err)
}

func TestExitCodes(t *testing.T) {
	dir, err := ioutil.TempDir("", "jscore-cli")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	good := writeScript(t, dir, "good.js", "var x = 1 + 2;")
	bad := writeScript(t, dir, "bad.js", "var x = ;")
	throws := writeScript(t, dir, "throws.js", "throw new Error('no');")

	tests := []struct {
		name string
		argv []string
		want int
	}{
		{"run file", []string{"run", good}, exitOK},
		{"run expression", []string{"run", "-e", "1 + 1"}, exitOK},
		{"syntax error", []string{"run", bad}, exitSyntax},
		{"uncaught exception", []string{"run", throws}, exitSoftware},
		{"check", []string{"check", good, bad}, exitSyntax},
		{"dump", []string{"dump", good}, exitOK},
		{"dump diff", []string{"dump", "--diff", good}, exitOK},
		{"bad version", []string{"--lang", "2.0", "run", good}, exitUsage},
		{"unknown flag", []string{"--bogus"}, exitUsage},
		{"show config", []string{"--show-config"}, exitOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, realMain(tt.argv))
		})
	}
}
