package tools

import (
	"bytes"
	"os/exec"
	"strings"
)

// ToolRequirement represents an external tool dependency
type ToolRequirement struct {
	Name       string // Display name
	Binary     string // Executable name
	Required   bool   // Whether the tool is required
	InstallCmd string // Installation command
	Purpose    string // One-line description
}

// CheckResult represents the result of checking a single tool
type CheckResult struct {
	Tool    ToolRequirement
	Found   bool
	Path    string
	Version string
}

// DefaultTools returns the list of external tools tulpar can use
func DefaultTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:       "subfinder",
			Binary:     "subfinder",
			Required:   true,
			InstallCmd: "go install -v github.com/projectdiscovery/subfinder/v2/cmd/subfinder@latest",
			Purpose:    "Subdomain discovery",
		},
		{
			Name:       "gowitness",
			Binary:     "gowitness",
			Required:   false,
			InstallCmd: "go install -v github.com/sensepost/gowitness@latest",
			Purpose:    "Screenshot capture (placeholder images are written when absent)",
		},
	}
}

// CheckTools checks all tools in the provided list
func CheckTools(tools []ToolRequirement) []CheckResult {
	results := make([]CheckResult, len(tools))
	for i, tool := range tools {
		results[i] = CheckTool(tool)
	}
	return results
}

// CheckTool checks if a single tool is available
func CheckTool(tool ToolRequirement) CheckResult {
	result := CheckResult{
		Tool:  tool,
		Found: false,
	}

	path, err := exec.LookPath(tool.Binary)
	if err != nil {
		return result
	}

	result.Found = true
	result.Path = path
	result.Version = getVersion(tool.Binary)

	return result
}

// getVersion attempts to get the version of a tool (best effort)
func getVersion(binary string) string {
	versionFlags := []string{"--version", "-version", "-v", "version"}

	for _, flag := range versionFlags {
		cmd := exec.Command(binary, flag)
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out

		err := cmd.Run()
		if err == nil && out.Len() > 0 {
			firstLine := strings.Split(out.String(), "\n")[0]
			version := strings.TrimSpace(firstLine)
			if len(version) > 50 {
				version = version[:50] + "..."
			}
			return version
		}
	}

	return "unknown"
}
