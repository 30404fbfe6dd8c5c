package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/wcc/internal/logging"
	"github.com/panbanda/wcc/internal/output"
	"github.com/panbanda/wcc/internal/testutil"
	"github.com/panbanda/wcc/pkg/config"
)

// newTestServer returns a server that does not cache or log.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	return NewServer("test", WithConfig(cfg), WithLogger(logging.Discard()))
}

// writeProject creates a Go project with one complex, uncovered function
// and a Coveralls report for it.
func writeProject(t *testing.T) (root, report string) {
	t.Helper()
	root = t.TempDir()

	var src strings.Builder
	src.WriteString("package risky\n\nfunc Classify(x int) int {\n")
	hits := []int{testutil.NotCoverable, testutil.NotCoverable, 0}
	for i := range 40 {
		fmt.Fprintf(&src, "\tif x == %d {\n\t\treturn 1\n\t}\n", i)
		hits = append(hits, 0, 0, testutil.NotCoverable)
	}
	src.WriteString("\treturn 0\n}\n")
	hits = append(hits, 0, testutil.NotCoverable)

	testutil.WriteFile(t, filepath.Join(root, "risky.go"), src.String())
	report = testutil.WriteCoveralls(t, t.TempDir(), map[string][]int{"risky.go": hits})
	return root, report
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("nil result")
	}
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is not TextContent: %T", result.Content[0])
	}
	return text.Text
}

// TestServerCreation verifies the MCP server can be created without panicking.
func TestServerCreation(t *testing.T) {
	server := NewServer("1.0.0-test")
	if server == nil {
		t.Fatal("NewServer() returned nil")
	}
	if server.server == nil {
		t.Fatal("NewServer().server is nil")
	}
	if server.config == nil || server.logger == nil {
		t.Fatal("NewServer() left defaults unset")
	}
}

func TestServerCreationEmptyVersion(t *testing.T) {
	if NewServer("") == nil {
		t.Fatal("NewServer(\"\") returned nil")
	}
}

func TestToolDescription(t *testing.T) {
	desc := describeWeightedCoverage()
	for _, section := range []string{"USE WHEN:", "INTERPRETING RESULTS:", "METRICS RETURNED:"} {
		if !strings.Contains(desc, section) {
			t.Errorf("description missing %s section", section)
		}
	}
}

func TestGetFormat(t *testing.T) {
	tests := map[string]output.Format{
		"":         output.FormatTOON,
		"toon":     output.FormatTOON,
		"json":     output.FormatJSON,
		"yml":      output.FormatYAML,
		"markdown": output.FormatMarkdown,
		"csv":      output.FormatTOON,
	}
	for in, want := range tests {
		if got := getFormat(WeightedCoverageInput{Format: in}); got != want {
			t.Errorf("getFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToolError(t *testing.T) {
	result, _, err := toolError("test error message")
	if err != nil {
		t.Fatalf("toolError returned unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("toolError result.IsError should be true")
	}
	if got := resultText(t, result); got != "Error: test error message" {
		t.Errorf("toolError text = %q", got)
	}
}

func TestInputStructTags(t *testing.T) {
	data, err := json.Marshal(WeightedCoverageInput{Report: "coverage.json"})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if string(data) != `{"report":"coverage.json"}` {
		t.Errorf("marshaled = %s", data)
	}
}

func TestHandleWeightedCoverage(t *testing.T) {
	root, report := writeProject(t)
	s := newTestServer(t)

	result, _, err := s.handleWeightedCoverage(context.Background(), nil, WeightedCoverageInput{
		Project: root,
		Report:  report,
		Format:  "json",
	})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("handler returned tool error: %s", text)
	}

	var doc struct {
		Metrics []struct {
			Path      string `json:"path"`
			IsComplex bool   `json:"is_complex"`
		} `json:"metrics"`
		Complex []struct {
			Path string `json:"path"`
		} `json:"complex"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, text)
	}
	if len(doc.Metrics) != 1 || doc.Metrics[0].Path != "risky.go" || !doc.Metrics[0].IsComplex {
		t.Errorf("metrics = %+v", doc.Metrics)
	}
	if len(doc.Complex) != 1 {
		t.Errorf("complex = %+v", doc.Complex)
	}
}

func TestHandleWeightedCoverageFunctionsTOON(t *testing.T) {
	root, report := writeProject(t)
	s := newTestServer(t)

	result, _, err := s.handleWeightedCoverage(context.Background(), nil, WeightedCoverageInput{
		Project: root,
		Report:  report,
		Mode:    "functions",
		Sort:    "crap",
	})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("handler returned tool error: %s", text)
	}
	if !strings.Contains(text, "Classify") {
		t.Errorf("TOON output missing function name:\n%s", text)
	}
}

func TestHandleWeightedCoverageComplexOnly(t *testing.T) {
	root, report := writeProject(t)
	s := newTestServer(t)

	result, _, _ := s.handleWeightedCoverage(context.Background(), nil, WeightedCoverageInput{
		Project:     root,
		Report:      report,
		Format:      "json",
		ComplexOnly: true,
	})
	text := resultText(t, result)

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := doc["metrics"]; ok {
		t.Error("complex_only should omit metrics rows")
	}
	if _, ok := doc["complex"]; !ok {
		t.Error("complex_only should keep complex units")
	}
}

func TestHandleWeightedCoverageBudget(t *testing.T) {
	root, report := writeProject(t)
	s := newTestServer(t)

	result, _, _ := s.handleWeightedCoverage(context.Background(), nil, WeightedCoverageInput{
		Project:   root,
		Report:    report,
		Format:    "json",
		MaxTokens: 10,
	})
	text := resultText(t, result)
	if !strings.HasPrefix(text, "Note: the full result") {
		t.Errorf("expected budget note, got:\n%s", text)
	}
	if strings.Contains(text, `"metrics"`) {
		t.Error("over-budget response should omit metrics rows")
	}
}

func TestHandleWeightedCoverageErrors(t *testing.T) {
	root, report := writeProject(t)
	s := newTestServer(t)

	tests := []struct {
		name  string
		input WeightedCoverageInput
		want  string
	}{
		{"missing report", WeightedCoverageInput{Project: root}, "report is required"},
		{"bad thresholds", WeightedCoverageInput{Project: root, Report: report, Thresholds: "1,2"}, "thresholds"},
		{"bad mode", WeightedCoverageInput{Project: root, Report: report, Mode: "lines"}, "mode"},
		{"report not found", WeightedCoverageInput{Project: root, Report: filepath.Join(root, "none.json")}, "none.json"},
		{"wrong schema", WeightedCoverageInput{Project: root, Report: report, JSONFormat: "covdir"}, "covdir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := s.handleWeightedCoverage(context.Background(), nil, tt.input)
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if !result.IsError {
				t.Fatal("expected a tool error")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("error %q does not mention %q", text, tt.want)
			}
		})
	}
}

func TestResolveDoesNotMutateServerConfig(t *testing.T) {
	s := newTestServer(t)
	_, run, err := s.resolve(WeightedCoverageInput{Report: "r.json", Mode: "functions", Thresholds: "1,1,1,1"})
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if run.Mode != config.ModeFunctions || run.Thresholds.Crap != 1 {
		t.Errorf("run = %+v", run)
	}
	if s.config.Analysis.Mode != "files" || s.config.Thresholds.Crap != 35 {
		t.Error("resolve changed the server configuration")
	}
}

func TestLoadPrompts(t *testing.T) {
	defs := loadPrompts()
	if len(defs) == 0 {
		t.Fatal("no prompts embedded")
	}
	for _, def := range defs {
		t.Run(def.Name, func(t *testing.T) {
			if def.Description == "" {
				t.Error("prompt description is empty")
			}
			if !strings.Contains(def.Body, "weighted_coverage") {
				t.Error("prompt should reference the weighted_coverage tool")
			}
			if strings.HasPrefix(def.Body, "---") {
				t.Error("frontmatter was not stripped")
			}
		})
	}
}

func TestParseFrontmatter(t *testing.T) {
	desc, body := parseFrontmatter([]byte("---\ndescription: Gate\n---\nRun it.\n"))
	if desc != "Gate" || body != "Run it.\n" {
		t.Errorf("parseFrontmatter() = %q, %q", desc, body)
	}

	desc, body = parseFrontmatter([]byte("No frontmatter"))
	if desc != "" || body != "No frontmatter" {
		t.Errorf("parseFrontmatter() = %q, %q", desc, body)
	}

	desc, body = parseFrontmatter([]byte("---\ndescription: unterminated\n"))
	if desc != "" || !strings.HasPrefix(body, "---") {
		t.Errorf("parseFrontmatter() = %q, %q", desc, body)
	}
}

func TestPromptHandler(t *testing.T) {
	def := promptDef{Name: "gate", Description: "Gate", Body: "Run weighted_coverage."}
	result, err := makePromptHandler(def)(context.Background(), &mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.Description != "Gate" || len(result.Messages) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Messages[0].Role != "user" {
		t.Errorf("role = %q", result.Messages[0].Role)
	}
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("")
	if err != nil {
		t.Fatalf("GenerateManifest() error = %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("invalid manifest: %v", err)
	}
	if m.Version != "0.0.0" || m.Name != "io.github.panbanda/wcc" {
		t.Errorf("manifest = %+v", m)
	}
	if len(m.Packages) != 1 || m.Packages[0].Identifier != "ghcr.io/panbanda/wcc:0.0.0" {
		t.Fatalf("packages = %+v", m.Packages)
	}
	pkg := m.Packages[0]
	if len(pkg.PackageArguments) != 1 || pkg.PackageArguments[0].Value != "mcp" {
		t.Errorf("package arguments = %+v, want the mcp subcommand", pkg.PackageArguments)
	}
	if len(pkg.EnvironmentVariables) != 1 || pkg.EnvironmentVariables[0].Name != logging.EnvVar {
		t.Errorf("environment variables = %+v", pkg.EnvironmentVariables)
	}
	if pkg.Transport.Type != "stdio" {
		t.Errorf("transport = %q", pkg.Transport.Type)
	}
}
