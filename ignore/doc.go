// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ignore decides which paths of a codebase are excluded from indexing.
//
// It implements a deliberately restricted glob dialect, not gitignore. A rule's
// kind is derived from its text alone:
//
//   - DirExact: "name", "name/" or "name/**" where name is a single segment.
//     Matches when any segment of the path equals name. The name may itself
//     contain "*" (for example "*.egg-info/**").
//   - GlobPath: any other pattern containing "/". The whole relative path must
//     match; "*" stays within one segment and "**" spans zero or more segments.
//   - GlobName: a pattern without "/" containing "*" (for example "*.min.js").
//     Only the final segment is matched.
//
// Before any rule is consulted, a path with a segment starting with "." is
// ignored. Empty paths and "/" are never ignored. Backslashes are treated as
// separators and repeated separators collapse, so the same rules behave the
// same on every platform. Matching is case-sensitive.
//
// Negation ("!pattern"), character classes and anchoring are not supported;
// ParseRule rejects them with a *core.ConfigurationError.
//
// # Usage
//
//	set, err := ignore.New("generated/**", "*.pb.go")
//	if err != nil {
//	    return err
//	}
//	if set.IsIgnored("web/node_modules/react/index.js", false) {
//	    // skipped
//	}
//
// A PatternSet never changes after New returns and is safe for concurrent use.
package ignore
