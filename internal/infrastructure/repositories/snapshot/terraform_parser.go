package snapshot

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

var (
	refPattern         = regexp.MustCompile(`[?&]ref=([^&\s"]+)`)
	refParamPattern    = regexp.MustCompile(`[?&]ref=[^&\s"]+`)
	moduleBlockPattern = regexp.MustCompile(`(?s)module\s+"([^"]+)"\s*\{[^}]*source\s*=\s*"([^"]+)"`)
	exactVersion       = regexp.MustCompile(`^v?\d+(\.\d+)*([-+][0-9A-Za-z.+-]+)?$`)
)

// ParseTerraform reads the module pins of a Terraform file: git sources
// pinned with "?ref=" are named by their source without the ref, registry
// modules with an exact "version" are named by their registry address.
func ParseTerraform(content []byte, filename string) (map[string]string, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(content, filename)
	if diags.HasErrors() || file.Body == nil {
		// Try regex-based parsing as fallback
		return scanWithRegex(string(content)), nil
	}

	bodyContent, _, diags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "module", LabelNames: []string{"name"}},
		},
	})
	if diags.HasErrors() {
		return scanWithRegex(string(content)), nil
	}

	versions := make(map[string]string)
	for _, block := range bodyContent.Blocks {
		attrs, _ := block.Body.JustAttributes()

		source, ok := stringAttribute(attrs, "source")
		if !ok {
			continue
		}

		if isGitModule(source) {
			if ref := extractRef(source); ref != "" {
				addPin(versions, removeRef(source), ref)
			}
			continue
		}

		if version, hasVersion := stringAttribute(attrs, "version"); hasVersion && exactVersion.MatchString(version) {
			addPin(versions, source, version)
		}
	}
	return versions, nil
}

// ParseTerraformLock reads the provider pins of a .terraform.lock.hcl file,
// named by their registry address.
func ParseTerraformLock(content []byte) (map[string]string, error) {
	file, diags := hclparse.NewParser().ParseHCL(content, ".terraform.lock.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse .terraform.lock.hcl: %s", diags.Error())
	}

	bodyContent, _, diags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "provider", LabelNames: []string{"source"}},
		},
	})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read providers: %s", diags.Error())
	}

	versions := make(map[string]string, len(bodyContent.Blocks))
	for _, block := range bodyContent.Blocks {
		attrs, _ := block.Body.JustAttributes()
		if version, ok := stringAttribute(attrs, "version"); ok && len(block.Labels) > 0 {
			versions[block.Labels[0]] = version
		}
	}
	return versions, nil
}

func stringAttribute(attrs hcl.Attributes, name string) (string, bool) {
	attr, ok := attrs[name]
	if !ok {
		return "", false
	}
	value, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() || value.IsNull() || value.Type() != cty.String {
		return "", false
	}
	return value.AsString(), true
}

// addPin keeps the first pin when a source is used by several modules.
func addPin(versions map[string]string, name, version string) {
	if _, exists := versions[name]; !exists {
		versions[name] = version
	}
}

// scanWithRegex is a fallback parser using regex for cases where HCL parsing fails
func scanWithRegex(content string) map[string]string {
	versions := make(map[string]string)
	for _, match := range moduleBlockPattern.FindAllStringSubmatch(content, -1) {
		source := match[2]
		if !isGitModule(source) {
			continue
		}
		if ref := extractRef(source); ref != "" {
			addPin(versions, removeRef(source), ref)
		}
	}
	return versions
}

// isGitModule checks if the source URL is a Git-based module
func isGitModule(source string) bool {
	return strings.HasPrefix(source, "git::") ||
		strings.HasPrefix(source, "git@") ||
		strings.Contains(source, "github.com") ||
		strings.Contains(source, "gitlab.com") ||
		strings.Contains(source, "bitbucket.org")
}

func extractRef(source string) string {
	if matches := refPattern.FindStringSubmatch(source); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

func removeRef(source string) string {
	cleaned := refParamPattern.ReplaceAllString(source, "")
	// a remaining "&param" lost its leading "?"
	if !strings.Contains(cleaned, "?") {
		cleaned = strings.Replace(cleaned, "&", "?", 1)
	}
	return cleaned
}
