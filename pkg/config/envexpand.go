package config

import (
	"os"
	"regexp"
)

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv expands ${VAR_NAME} references in YAML content from the process
// environment. Only the braced form is recognized; a bare $ passes through
// untouched so literal dollar signs in values survive.
//
// Missing variables expand to the empty string. Validation catches required
// settings that end up empty.
func ExpandEnv(data []byte) []byte {
	return envRefPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envRefPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}
