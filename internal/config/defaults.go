package config

import "time"

// Default values used by Default. Exported so callers can build
// configurations relative to them.
const (
	DefaultPortBase      = 15000
	DefaultPortOffset    = 8
	DefaultPortIncrement = 1
	DefaultPortMax       = 65535

	// DefaultSettleDelay is how long the orchestrator waits after starting an
	// environment before running its test entrypoint.
	DefaultSettleDelay = 5 * time.Second

	// DefaultCategoryTimeout applies to categories without an explicit entry.
	DefaultCategoryTimeout = 30 * time.Second

	// DefaultMaxCompatible caps each compatibility list written by a refresh.
	DefaultMaxCompatible = 2

	DefaultRegistryPath  = "sdkinfo.json"
	DefaultTemplatesDir  = "templates"
	DefaultOutputDir     = "docker"
	DefaultCacheDir      = ".sdkmatrix"
	DefaultGitHubAPI     = "https://api.github.com/repos"
	DefaultProjectPrefix = "sdkmatrix"
)

// defaultCategories is the test category catalog carried by every combination.
var defaultCategories = []string{
	"connection",
	"transport",
	"creation",
	"notifications",
	"types",
	"session",
	"session_group",
	"auth",
	"config",
	"resource_cleanup",
	"sampling",
	"list_methods",
	"list_roots",
	"logging",
	"message_protocol",
	"message_schema",
	"deserialization",
	"complex_schema",
	"tool_handling",
	"notification",
	"type_safety",
	"async_handling",
	"error_handling",
	"memory_safety",
}

// defaultTimeouts lists categories whose timeout differs from
// DefaultCategoryTimeout.
var defaultTimeouts = map[string]time.Duration{
	"transport":        60 * time.Second,
	"creation":         45 * time.Second,
	"notifications":    90 * time.Second,
	"session":          60 * time.Second,
	"session_group":    60 * time.Second,
	"auth":             45 * time.Second,
	"resource_cleanup": 45 * time.Second,
	"list_methods":     45 * time.Second,
	"message_protocol": 60 * time.Second,
	"message_schema":   45 * time.Second,
	"deserialization":  45 * time.Second,
	"complex_schema":   60 * time.Second,
	"tool_handling":    45 * time.Second,
	"notification":     45 * time.Second,
	"async_handling":   45 * time.Second,
}

func defaultLanguages() []Language {
	return []Language{
		{
			Name:           "python",
			Repo:           "modelcontextprotocol/python-sdk",
			BaseImage:      "python:3.11-slim",
			PortStart:      8000,
			PortEnd:        8015,
			ClientCommand:  "python -m basic_client",
			ServerCommand:  "python -m basic_server",
			PackageName:    "mcp-python-sdk",
			PackageManager: PackagePip,
			VersionSource:  SourceReleases,
		},
		{
			Name:           "typescript",
			Repo:           "modelcontextprotocol/typescript-sdk",
			BaseImage:      "node:20-slim",
			PortStart:      8016,
			PortEnd:        8031,
			ClientCommand:  "npm run start:client",
			ServerCommand:  "npm run start:server",
			PackageName:    "@modelcontextprotocol/sdk",
			PackageManager: PackageNpm,
			VersionSource:  SourceReleases,
		},
		{
			Name:           "rust",
			Repo:           "modelcontextprotocol/rust-sdk",
			BaseImage:      "rust:1.75-slim",
			PortStart:      8032,
			PortEnd:        8047,
			ClientCommand:  "cargo run --example basic_client",
			ServerCommand:  "cargo run --example basic_server",
			PackageName:    "mcp-rust-sdk",
			PackageManager: PackageCargo,
			VersionSource:  SourceManifest,
		},
	}
}
