package indexing

// DefaultExtensions are the file extensions indexed when no others are given.
// Extensions passed with WithExtensions are added to this list.
var DefaultExtensions = []string{
	".ts", ".tsx", ".js", ".jsx",
	".py",
	".java", ".kt", ".scala",
	".c", ".h", ".cpp", ".hpp",
	".cs",
	".go",
	".rs",
	".php",
	".rb",
	".swift",
	".m", ".mm",
	".md", ".markdown",
	".ipynb",
}
