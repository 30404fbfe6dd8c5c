package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptFrontmatter is parsed from YAML frontmatter in prompt files.
type promptFrontmatter struct {
	Description string `yaml:"description"`
}

// promptDef is a prompt loaded from an embedded markdown file.
type promptDef struct {
	Name        string
	Description string
	Body        string
}

// loadPrompts reads every embedded prompt in name order.
func loadPrompts() []promptDef {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil
	}

	var defs []promptDef
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFiles.ReadFile(path.Join("prompts", entry.Name()))
		if err != nil {
			continue
		}
		description, body := parseFrontmatter(content)
		defs = append(defs, promptDef{
			Name:        strings.TrimSuffix(entry.Name(), ".md"),
			Description: description,
			Body:        body,
		})
	}
	return defs
}

// registerPrompts registers all prompts from embedded markdown files.
func (s *Server) registerPrompts() {
	for _, def := range loadPrompts() {
		s.server.AddPrompt(&mcp.Prompt{
			Name:        def.Name,
			Description: def.Description,
		}, makePromptHandler(def))
	}
}

// parseFrontmatter extracts YAML frontmatter and returns description and body.
func parseFrontmatter(content []byte) (description string, body string) {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return "", string(content)
	}

	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return "", string(content)
	}

	var fm promptFrontmatter
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return "", string(content)
	}

	body = strings.TrimPrefix(string(rest[end+5:]), "\n")
	return fm.Description, body
}

func makePromptHandler(def promptDef) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: def.Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: def.Body},
				},
			},
		}, nil
	}
}
