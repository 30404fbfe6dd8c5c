package mcpserver

import (
	"encoding/json"

	"github.com/panbanda/wcc/internal/logging"
)

const (
	serverName   = "wcc"
	registryName = "io.github.panbanda/wcc"
	imageRepo    = "ghcr.io/panbanda/wcc"
	manifestURL  = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
)

// Manifest is the server.json entry wcc publishes to the MCP registry: one
// container image that runs `wcc mcp` over stdio.
type Manifest struct {
	Schema      string    `json:"$schema"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	Packages    []Package `json:"packages"`
}

// Package is a runnable distribution of the server.
type Package struct {
	RegistryType         string     `json:"registryType"`
	Identifier           string     `json:"identifier"`
	PackageArguments     []Argument `json:"packageArguments"`
	EnvironmentVariables []EnvVar   `json:"environmentVariables,omitempty"`
	Transport            Transport  `json:"transport"`
}

// Argument is a command-line argument passed to the package.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// EnvVar documents an environment variable the server reads.
type EnvVar struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
}

// Transport names the protocol transport.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest returns the indented server.json for version.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	return json.MarshalIndent(Manifest{
		Schema:      manifestURL,
		Name:        registryName,
		Description: "Ranks complex, poorly tested files and functions from a grcov coverage report",
		Version:     version,
		Packages: []Package{{
			RegistryType:     "oci",
			Identifier:       imageRepo + ":" + version,
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []EnvVar{{
				Name:        logging.EnvVar,
				Description: "Log level written to stderr: debug, info, warn or error",
				Default:     "info",
			}},
			Transport: Transport{Type: "stdio"},
		}},
	}, "", "  ")
}
