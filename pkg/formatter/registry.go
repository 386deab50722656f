package formatter

import (
	"fmt"
	"path/filepath"
	"strings"
)

// clangExtensions lists the source file suffixes the clang-format family
// adapter claims.
var clangExtensions = map[string]bool{
	".c": true, ".h": true, ".cc": true, ".cpp": true, ".cxx": true,
	".hpp": true, ".hxx": true, ".m": true, ".mm": true,
	".java": true, ".js": true, ".ts": true, ".proto": true,
}

// ForFile picks an Adapter by the source file's extension. Only one
// concrete adapter ships today; the registry exists so a second formatter
// family can be added without touching any caller.
func ForFile(path string) (Adapter, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if clangExtensions[ext] {
		return NewClangFormatter(), nil
	}
	return nil, fmt.Errorf("formatter: no adapter registered for extension %q", ext)
}
