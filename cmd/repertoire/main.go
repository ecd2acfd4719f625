package main

import (
	"os"
	"strings"

	"repertoire-cli/internal/cli"

	"github.com/google/uuid"
)

func isLineID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}

func withShow(argv []string, i int) []string {
	out := make([]string, 0, len(argv)+2)
	out = append(out, argv[:i]...)
	out = append(out, "lines", "show")
	out = append(out, argv[i:]...)
	return out
}

// rewriteDirectLineLookupArgs turns `repertoire <line-id>` into
// `repertoire lines show <line-id>`. Cobra treats the first non-flag token as
// a subcommand, so argv is rewritten before parsing.
func rewriteDirectLineLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value.
	valueFlags := map[string]bool{
		"--dir":       true,
		"--workspace": true,
		"--format":    true,
		"--log-level": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isLineID(argv[i+1]) {
				return withShow(argv, i+1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if isLineID(a) {
			return withShow(argv, i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectLineLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
