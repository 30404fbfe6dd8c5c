package mcpserver

import (
	"bytes"
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/wcc/internal/output"
	"github.com/panbanda/wcc/internal/service/analysis"
	"github.com/panbanda/wcc/pkg/config"
)

// WeightedCoverageInput is the input of the weighted_coverage tool. Empty
// fields fall back to the server configuration.
type WeightedCoverageInput struct {
	Project     string `json:"project,omitempty" jsonschema:"Project root to analyze. Defaults to the current directory."`
	Report      string `json:"report" jsonschema:"Path to the grcov JSON coverage report."`
	JSONFormat  string `json:"json_format,omitempty" jsonschema:"Report schema: coveralls (default) or covdir."`
	Complexity  string `json:"complexity,omitempty" jsonschema:"Complexity metric: cyclomatic (default) or cognitive."`
	Mode        string `json:"mode,omitempty" jsonschema:"Unit of analysis: files (default) or functions."`
	Sort        string `json:"sort,omitempty" jsonschema:"Score ranking complex units: wcc_plain (default), wcc_quantized, crap or skunk."`
	Thresholds  string `json:"thresholds,omitempty" jsonschema:"Comma separated wcc_plain,wcc_quantized,crap,skunk thresholds. Default 35.0,1.5,35.0,30.0."`
	Format      string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml or markdown."`
	ComplexOnly bool   `json:"complex_only,omitempty" jsonschema:"Return only complex units, the summary and ignored units."`
	MaxTokens   int    `json:"max_tokens,omitempty" jsonschema:"Approximate token budget for the response. Default 32000."`
}

func getFormat(input WeightedCoverageInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "yaml", "yml":
		return output.FormatYAML
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

// resolve applies the input overrides to a copy of the server
// configuration.
func (s *Server) resolve(input WeightedCoverageInput) (*config.Config, config.Run, error) {
	cfg := *s.config
	if input.JSONFormat != "" {
		cfg.Analysis.JSONFormat = input.JSONFormat
	}
	if input.Complexity != "" {
		cfg.Analysis.Complexity = input.Complexity
	}
	if input.Mode != "" {
		cfg.Analysis.Mode = input.Mode
	}
	if input.Sort != "" {
		cfg.Analysis.Sort = input.Sort
	}
	if input.Thresholds != "" {
		if err := cfg.SetThresholds(input.Thresholds); err != nil {
			return nil, config.Run{}, err
		}
	}

	project := input.Project
	if project == "" {
		project = "."
	}
	run, err := cfg.Resolve(project, input.Report)
	if err != nil {
		return nil, config.Run{}, err
	}
	return &cfg, run, nil
}

func formatOutput(doc *output.Document, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toolResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// dropRows removes the per-unit rows, keeping the summary, the complex
// units and the ignored list.
func dropRows(doc *output.Document) {
	doc.Metrics = nil
	doc.Files = nil
}

func (s *Server) handleWeightedCoverage(ctx context.Context, req *mcp.CallToolRequest, input WeightedCoverageInput) (*mcp.CallToolResult, any, error) {
	if input.Report == "" {
		return toolError("report is required")
	}

	cfg, run, err := s.resolve(input)
	if err != nil {
		return toolError(err.Error())
	}

	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(s.logger))
	res, err := svc.Analyze(ctx, run, analysis.Options{})
	if err != nil {
		return toolError(err.Error())
	}

	doc := output.NewDocument(res.Outcome, run, res.Report.Digest())
	doc.Top = 0
	if input.ComplexOnly {
		dropRows(doc)
	}

	format := getFormat(input)
	text, err := formatOutput(doc, format)
	if err != nil {
		return toolError(err.Error())
	}
	if input.ComplexOnly || output.FitsBudget(text, input.MaxTokens) {
		return toolResult(text)
	}

	// Over budget: keep what matters for triage.
	tokens := output.EstimateTokens(text)
	dropRows(doc)
	text, err = formatOutput(doc, format)
	if err != nil {
		return toolError(err.Error())
	}
	note := fmt.Sprintf("Note: the full result (~%s tokens) exceeded the budget; per-unit rows were omitted. Set complex_only or narrow the project to reduce output.\n\n",
		output.FormatTokenCount(tokens))
	return toolResult(note + text)
}
