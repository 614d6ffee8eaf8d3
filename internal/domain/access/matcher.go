package access

import "strings"

// Normalize canonicalizes a request path before rule comparison: a
// two-letter locale prefix is stripped (/ru/auth/login -> /auth/login), then
// the query string and any trailing slash are removed, so localized routes
// share rules with their canonical form.
func Normalize(path string) string {
	path = stripLocale(path)
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.TrimSuffix(path, "/")
}

func stripLocale(path string) string {
	if len(path) >= 4 && path[0] == '/' && path[3] == '/' &&
		isLowerAlpha(path[1]) && isLowerAlpha(path[2]) {
		return path[3:]
	}
	return path
}

func isLowerAlpha(b byte) bool {
	return b >= 'a' && b <= 'z'
}

// Match reports whether any rule covers (method, path). Rule paths ending
// in "/*" match by prefix; everything else matches exactly after
// normalization.
func Match(rules []Rule, method, path string) bool {
	clean := Normalize(path)
	for _, rule := range rules {
		if rule.Method != "*" && rule.Method != method {
			continue
		}
		rulePath := rule.Path
		if i := strings.IndexByte(rulePath, '?'); i >= 0 {
			rulePath = rulePath[:i]
		}
		if strings.HasSuffix(rulePath, "/*") {
			// Keep the slash in the prefix so /api/auth/* cannot match
			// /api/authx. The bare prefix path itself also matches.
			base := rulePath[:len(rulePath)-2]
			if clean == base || strings.HasPrefix(clean, rulePath[:len(rulePath)-1]) {
				return true
			}
			continue
		}
		if clean == strings.TrimSuffix(rulePath, "/") {
			return true
		}
	}
	return false
}
