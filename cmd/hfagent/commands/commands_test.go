package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sweetpotato0/hfagents/config"
	"github.com/sweetpotato0/hfagents/tools/hubmodel"
	"github.com/sweetpotato0/hfagents/tools/imagegen"
	"github.com/sweetpotato0/hfagents/tools/webpage"
	"github.com/sweetpotato0/hfagents/tools/websearch"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.FromEnv(func(string) string { return "" })
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	return cfg
}

func TestBuildToolsSelectsKit(t *testing.T) {
	cfg := testConfig(t)

	var names []string
	tools, release := buildTools(context.Background(), cfg, allTools())
	defer release()
	for _, tl := range tools {
		names = append(names, tl.Name)
	}
	want := []string{websearch.Name, webpage.Name, hubmodel.Name, imagegen.Name}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("tools = %v, want %v", names, want)
	}

	got, releaseVisit := buildTools(context.Background(), cfg, toolKit{visit: true})
	defer releaseVisit()
	if len(got) != 1 || got[0].Name != webpage.Name {
		t.Errorf("visit kit = %v", got)
	}
}

func TestBuildAgentRequiresCredential(t *testing.T) {
	cfg := testConfig(t)
	if _, _, err := buildAgent(context.Background(), cfg, allTools()); err == nil {
		t.Fatal("expected an error without an LLM credential")
	}
}

func TestHubToolReleasesRedisCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Hub.RedisAddr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	tools, release := buildTools(ctx, cfg, toolKit{hub: true})
	if len(tools) != 1 || tools[0].Name != hubmodel.Name {
		t.Fatalf("unexpected tools %v", tools)
	}
	release()
}

func TestGenerateWithoutTokenReportsText(t *testing.T) {
	t.Setenv("HUGGINGFACE_API_KEY", "")
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"generate", "a", "red", "bicycle"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Error: Hugging Face access token is not configured") {
		t.Errorf("unexpected output %q", out.String())
	}
}
