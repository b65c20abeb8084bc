package interpreter

import "strings"

// isRequestMethod reports whether s is one of the request methods the
// reference agent recognizes on a request line (spec.md §4.4).
func isRequestMethod(s string) bool {
	switch s {
	case "GET", "HEAD", "PUT", "POST":
		return true
	default:
		return false
	}
}

// parseHTTP1 scans payload as text lines looking for the first
// recognizable request line and the first Host header, deliberately
// permissive per spec.md §9 ("first recognizable request line and first
// Host: header win, no validation of well-formedness").
func parseHTTP1(payload []byte) (method, path, host string) {
	for _, line := range strings.Split(string(payload), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		if method == "" {
			fields := strings.Fields(line)
			if len(fields) == 3 && isRequestMethod(fields[0]) {
				method = fields[0]
				path = fields[1]
				continue
			}
		}

		if host == "" {
			lower := strings.ToLower(line)
			if strings.HasPrefix(lower, "host:") {
				host = strings.TrimSpace(line[len("host:"):])
			}
		}
	}
	return method, path, host
}
