package probe

import "strings"

// MatchesLibraryFilter reports whether an opened path names a TLS library
// this agent should trace. It is the pure-Go mirror of the kernel-side
// filter ignore() in bpf/tlsmon.c, so the behavior can be unit tested
// without a kernel: libssl.so.<digit>, libssl.so.<digit>.<digit>, and
// libnode.so.<digit><digit>, all requiring an absolute path. Like the
// kernel filter, libnode matches exactly two version characters, so a
// three-digit version such as libnode.so.115 is not matched. Unlike the
// kernel filter, this version also requires those characters to be
// digits.
func MatchesLibraryFilter(path string) bool {
	if !strings.HasPrefix(path, "/") {
		return false
	}
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}

	if rest, ok := cutPrefix(base, "libssl.so."); ok {
		return isLibsslSuffix(rest)
	}
	if rest, ok := cutPrefix(base, "libnode.so."); ok {
		return len(rest) == 2 && isAllDigits(rest)
	}
	return false
}

// isLibsslSuffix accepts "<digit>" or "<digit>.<digit>".
func isLibsslSuffix(s string) bool {
	if s == "" {
		return false
	}
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return len(s) == 1 && isAllDigits(s)
	}
	major, minor := s[:dot], s[dot+1:]
	return len(major) == 1 && isAllDigits(major) && len(minor) == 1 && isAllDigits(minor) && !strings.Contains(minor, ".")
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
