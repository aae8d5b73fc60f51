// Package language maps file paths to language tags used to pick a chunking
// strategy and to label search results. Detection is pure: extension lookup
// first, then a shebang sniff for extensionless files, with "unknown" as the
// fallback. Unknown files are still indexable as plain text.
package language

import (
	"path/filepath"
	"strings"
)

// Unknown is the tag for files whose language could not be determined.
const Unknown = "unknown"

// extensions maps lowercase file extensions to language tags.
var extensions = map[string]string{
	".go":    "go",
	".py":    "python",
	".pyw":   "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".rs":    "rust",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "csharp",
	".swift": "swift",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".scala": "scala",
	".m":     "objective-c",
	".sh":    "shell",
	".bash":  "shell",
	".sql":   "sql",
	".md":    "markdown",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
}

// interpreters maps shebang interpreter names to language tags.
var interpreters = map[string]string{
	"python":  "python",
	"python3": "python",
	"node":    "javascript",
	"ruby":    "ruby",
	"bash":    "shell",
	"sh":      "shell",
	"zsh":     "shell",
	"php":     "php",
}

// Detect returns the language tag for a file path. head holds the first
// bytes of the file and is only consulted when the extension is missing or
// unrecognized, to sniff a shebang line.
func Detect(path string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensions[ext]; ok {
		return lang
	}
	if lang := sniffShebang(head); lang != "" {
		return lang
	}
	return Unknown
}

// FromExtension returns the language tag for an extension alone, without
// content sniffing.
func FromExtension(ext string) string {
	if lang, ok := extensions[strings.ToLower(ext)]; ok {
		return lang
	}
	return Unknown
}

// sniffShebang inspects a "#!" first line for a known interpreter.
func sniffShebang(head []byte) string {
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, "#!") {
		return ""
	}

	fields := strings.Fields(line[2:])
	if len(fields) == 0 {
		return ""
	}

	// "#!/usr/bin/env python3" names the interpreter in the second field.
	interp := filepath.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = filepath.Base(fields[1])
	}

	// Strip version suffixes like python3.12.
	if lang, ok := interpreters[interp]; ok {
		return lang
	}
	for name, lang := range interpreters {
		if strings.HasPrefix(interp, name) {
			return lang
		}
	}
	return ""
}
