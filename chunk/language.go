package chunk

import (
	"path"
	"strings"
)

var languages = map[string]string{
	".go":     "go",
	".ts":     "typescript",
	".tsx":    "typescript",
	".mts":    "typescript",
	".cts":    "typescript",
	".js":     "javascript",
	".jsx":    "javascript",
	".mjs":    "javascript",
	".cjs":    "javascript",
	".py":     "python",
	".pyi":    "python",
	".java":   "java",
	".kt":     "kotlin",
	".kts":    "kotlin",
	".scala":  "scala",
	".c":      "c",
	".h":      "c",
	".cc":     "cpp",
	".cpp":    "cpp",
	".cxx":    "cpp",
	".hpp":    "cpp",
	".cs":     "csharp",
	".rs":     "rust",
	".rb":     "ruby",
	".php":    "php",
	".swift":  "swift",
	".m":      "objective-c",
	".mm":     "objective-c",
	".dart":   "dart",
	".lua":    "lua",
	".sh":     "shell",
	".bash":   "shell",
	".zsh":    "shell",
	".sql":    "sql",
	".r":      "r",
	".vue":    "vue",
	".svelte": "svelte",
	".md":     "markdown",
	".mdx":    "markdown",
	".ipynb":  "jupyter",
}

// LanguageForPath guesses the language of a file from its extension.
// Unknown extensions return "text".
func LanguageForPath(p string) string {
	if lang, ok := languages[strings.ToLower(path.Ext(p))]; ok {
		return lang
	}
	return "text"
}
