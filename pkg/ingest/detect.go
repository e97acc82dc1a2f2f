package ingest

import (
	"path"
	"regexp"

	"golang.org/x/mod/modfile"
)

// ProjectInfo is what DetectProject reports about the repository a batch of
// files came from: its dominant language and, where extractable, its
// declared module/package name. It is informational: neither the ingestion
// pipeline nor any scoring path calls DetectProject.
type ProjectInfo struct {
	Type string // "go", "javascript", "python", "java", "rust", "ruby", "php", "unknown"
	Name string
}

var markerOrder = []struct {
	file string
	typ  string
}{
	{"go.mod", "go"},
	{"package.json", "javascript"},
	{"pyproject.toml", "python"},
	{"pom.xml", "java"},
	{"build.gradle", "java"},
	{"Cargo.toml", "rust"},
	{"Gemfile", "ruby"},
	{"composer.json", "php"},
}

var (
	jsNameRe     = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
	pomArtifactRe = regexp.MustCompile(`<artifactId>([^<]+)</artifactId>`)
	pyNameRe     = regexp.MustCompile(`(?:tool\.poetry|project)\.name\s*=\s*["']([^"']+)["']`)
	cargoNameRe  = regexp.MustCompile(`\[package\](?:.|\n)*?name\s*=\s*["']([^"']+)["']`)
)

// DetectProject inspects a batch's file names for well-known root markers
// (go.mod, package.json, ...) and extracts the declared project name from
// whichever marker is found first, in priority order.
func DetectProject(files map[string][]byte) ProjectInfo {
	for _, m := range markerOrder {
		for name, content := range files {
			if path.Base(name) != m.file {
				continue
			}
			return ProjectInfo{Type: m.typ, Name: extractName(m.typ, content)}
		}
	}
	return ProjectInfo{Type: "unknown"}
}

func extractName(projectType string, content []byte) string {
	switch projectType {
	case "go":
		if mod, err := modfile.Parse("go.mod", content, nil); err == nil && mod.Module != nil {
			return mod.Module.Mod.Path
		}
		return ""
	case "javascript":
		return firstMatch(jsNameRe, content)
	case "java":
		return firstMatch(pomArtifactRe, content)
	case "python":
		return firstMatch(pyNameRe, content)
	case "rust":
		return firstMatch(cargoNameRe, content)
	default:
		return ""
	}
}

func firstMatch(re *regexp.Regexp, content []byte) string {
	m := re.FindSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return string(m[1])
}
