// Package flagx lets several independent flag parsers share one command
// line: each parser first keeps only the flags it owns.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the subset of args made of allowed flags and their
// values, preserving order. Both "-f value" and "-f=value" forms are
// recognised; a value is only consumed when the next token is not itself a
// flag. Scanning stops at a bare "--".
func FilterArgs(args []string, allowed []string) []string {
	keep := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		keep[f] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}

		name, _, inline := strings.Cut(arg, "=")
		if !strings.HasPrefix(name, "-") || !keep[name] {
			continue
		}

		out = append(out, arg)
		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}

	return out
}

// ConfigFile extracts the JSON config path passed with -c or -config.
// Other arguments are ignored; when the flag repeats the last one wins.
// An empty string means no config file was requested.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
