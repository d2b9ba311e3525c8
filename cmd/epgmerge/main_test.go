package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"epgmerge/internal/services"
	"epgmerge/internal/testsupport"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T, urls ...string) (configPath, outputPath string) {
	t.Helper()

	base := t.TempDir()
	outputPath = filepath.Join(base, "out", "epg_all.xml")
	configPath = filepath.Join(base, "config.toml")

	var quoted []string
	for _, u := range urls {
		quoted = append(quoted, fmt.Sprintf("%q", u))
	}
	content := fmt.Sprintf(`
[sources]
urls = [%s]
timeout = 5

[output]
path = %q

[logging]
level = "error"

[paths]
lock_dir = %q
`, strings.Join(quoted, ", "), outputPath, filepath.Join(base, "lock"))

	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath, outputPath
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestMergeCommandEndToEnd(t *testing.T) {
	guide := `<tv><channel id="bbc1"><display-name>BBC One</display-name></channel><programme channel="bbc1"><title>Breakfast</title></programme></tv>`
	body := testsupport.GzipBytes(t, []byte(guide))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	configPath, outputPath := writeTestConfig(t, server.URL+"/feed.xml.gz")

	out, err := runCLI(t, "--config", configPath, "merge")
	if err != nil {
		t.Fatalf("merge command failed: %v\n%s", err, out)
	}
	requireContains(t, out, "Wrote merged XML to: "+outputPath)
	requireContains(t, out, "Wrote gzip to: "+outputPath+".gz")

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	requireContains(t, string(data), "BBC One")
}

func TestMergeCommandDestinationExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(testsupport.GzipBytes(t, []byte("<tv></tv>")))
	}))
	t.Cleanup(server.Close)

	configPath, outputPath := writeTestConfig(t, server.URL+"/feed.xml.gz")
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(outputPath, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, "--config", configPath, "merge")
	if err == nil {
		t.Fatal("expected destination-exists failure")
	}
	if services.ExitCode(err) != services.ExitDestination {
		t.Fatalf("expected exit 2, got %d (%v)", services.ExitCode(err), err)
	}

	// --overwrite clears the gate.
	out, err := runCLI(t, "--config", configPath, "merge", "--overwrite")
	if err != nil {
		t.Fatalf("overwrite merge failed: %v\n%s", err, out)
	}
}

func TestMergeCommandGzipOnlyFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(testsupport.GzipBytes(t, []byte("<tv></tv>")))
	}))
	t.Cleanup(server.Close)

	configPath, outputPath := writeTestConfig(t, server.URL+"/feed.xml.gz")

	out, err := runCLI(t, "--config", configPath, "merge", "--gzip-only")
	if err != nil {
		t.Fatalf("merge command failed: %v\n%s", err, out)
	}
	if strings.Contains(out, "Wrote merged XML to:") {
		t.Fatalf("gzip-only run must not report an uncompressed file:\n%s", out)
	}
	if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
		t.Fatal("gzip-only run must not write the uncompressed file")
	}
	if _, err := os.Stat(outputPath + ".gz"); err != nil {
		t.Fatalf("expected gzipped output: %v", err)
	}
}

func TestMergeCommandTotalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	configPath, outputPath := writeTestConfig(t, server.URL+"/feed.xml.gz")

	_, err := runCLI(t, "--config", configPath, "merge")
	if err == nil {
		t.Fatal("expected total failure")
	}
	if services.ExitCode(err) != services.ExitFailure {
		t.Fatalf("expected exit 1, got %d", services.ExitCode(err))
	}
	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Fatal("no output file may exist after total failure")
	}
}

func TestSourcesCommandListsFeeds(t *testing.T) {
	configPath, _ := writeTestConfig(t, "https://example.com/a.xml.gz", "https://example.com/b.xml.gz")

	out, err := runCLI(t, "--config", configPath, "sources")
	if err != nil {
		t.Fatalf("sources command failed: %v", err)
	}
	requireContains(t, out, "https://example.com/a.xml.gz")
	requireContains(t, out, "https://example.com/b.xml.gz")
	requireContains(t, out, "Timeout: 5s")
}

func TestRefreshCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<tv><channel id="pluto"/></tv>`))
	}))
	t.Cleanup(server.Close)

	configPath, _ := writeTestConfig(t, "https://example.com/unused.xml.gz")
	dest := filepath.Join(t.TempDir(), "pluto.xml")

	out, err := runCLI(t, "--config", configPath, "refresh", "--url", server.URL+"/epg.xml", "--path", dest)
	if err != nil {
		t.Fatalf("refresh command failed: %v\n%s", err, out)
	}
	requireContains(t, out, "Wrote "+dest)

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	requireContains(t, string(data), "pluto")
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, err = runCLI(t, "config", "init", "--path", target)
	if err == nil {
		t.Fatal("expected error when config already exists")
	}
}
