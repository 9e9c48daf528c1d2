package ignore

// DefaultPatternsVersion changes whenever the built-in table changes.
// Snapshots are not invalidated by a new version; the next sync simply
// reports newly ignored files as deleted.
const DefaultPatternsVersion = 3

// defaultPatterns is the built-in ignore table. Dotted entries are already
// covered by the hidden-segment rule and stay listed for readability.
var defaultPatterns = [...]string{
	// Build output directories
	"node_modules/**",
	"dist/**",
	"build/**",
	"out/**",
	"target/**",
	"coverage/**",
	".nyc_output/**",

	// IDE and editor files
	".vscode/**",
	".idea/**",
	"*.swp",
	"*.swo",

	// Version control
	".git/**",
	".svn/**",
	".hg/**",
	".bzr/**",

	// Cache directories
	".cache/**",
	"__pycache__/**",
	".pytest_cache/**",

	// Logs and temporary files
	"logs/**",
	"tmp/**",
	"temp/**",
	"*.log",
	"*.tmp",
	"*.temp",

	// Environment and local overrides
	".env",
	".env.*",
	"*.local",

	// Minified and bundled files
	"*.min.js",
	"*.min.css",
	"*.min.map",
	"*.bundle.js",
	"*.bundle.css",
	"*.chunk.js",
	"*.vendor.js",
	"*.polyfills.js",
	"*.runtime.js",
	"*.map",

	// Dependency and vendor directories
	"vendor/**",
	"venv/**",
	".venv/**",
	"env/**",
	"Pods/**",
	".bundle/**",
	".pnpm-store/**",
	".yarn/**",

	// Framework and toolchain caches
	".next/**",
	".nuxt/**",
	".astro/**",
	".svelte-kit/**",
	".remix/**",
	".angular/**",
	".expo/**",
	".gradle/**",
	".cargo/**",
	".stack-work/**",
	"_build/**",
	".elixir_ls/**",
	".dart_tool/**",
	"zig-cache/**",
	"zig-out/**",
	".nx/**",
	".rush/**",
	".webpack/**",
	".vite/**",
	".tsbuildinfo",
	"*.egg-info/**",

	// .NET and JVM output
	"bin/**",
	"obj/**",
	"*.iml",

	// OS metadata
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	".Spotlight-V100",
	".Trashes",

	// Test artifacts
	"htmlcov/**",
	".coverage",
	"test-results/**",
	"playwright-report/**",
	"cypress/videos/**",
	"cypress/screenshots/**",

	// Compiled binaries and libraries
	"*.exe",
	"*.dll",
	"*.so",
	"*.dylib",
	"*.jar",
	"*.war",
	"*.class",
	"*.pyc",
	"*.o",
	"*.a",

	// Media
	"*.jpg",
	"*.jpeg",
	"*.png",
	"*.gif",
	"*.ico",
	"*.mp4",
	"*.mp3",
	"*.pdf",

	// Databases
	"*.db",
	"*.sqlite",
	"*.sqlite3",

	// Archives
	"*.zip",
	"*.tar",
	"*.gz",
	"*.rar",
	"*.7z",

	// Lock files
	"package-lock.json",
	"yarn.lock",
	"Gemfile.lock",
	"poetry.lock",
	"composer.lock",
	"Pipfile.lock",
	"pnpm-lock.yaml",
	"Cargo.lock",
	"go.sum",

	// Infrastructure state
	".terraform/**",
	"*.tfstate",
	"*.tfstate.backup",
	".dockerignore",

	// Generated documentation
	"_site/**",
	"site/**",
	"book/**",
	"docs/_build/**",
}

// DefaultPatterns returns a copy of the built-in ignore table.
func DefaultPatterns() []string {
	out := make([]string, len(defaultPatterns))
	copy(out, defaultPatterns[:])
	return out
}
