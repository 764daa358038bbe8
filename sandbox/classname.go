package sandbox

import "regexp"

var (
	publicClassPattern = regexp.MustCompile(`public\s+class\s+(\w+)`)
	anyClassPattern    = regexp.MustCompile(`class\s+(\w+)`)
)

// ExtractClassName returns the Java entry-point class name: the first
// "public class X", else the first "class X". It is a textual heuristic, not
// a parse, so comments, strings and nested classes are not understood.
func ExtractClassName(source string) (string, bool) {
	if m := publicClassPattern.FindStringSubmatch(source); m != nil {
		return m[1], true
	}
	if m := anyClassPattern.FindStringSubmatch(source); m != nil {
		return m[1], true
	}
	return "", false
}
