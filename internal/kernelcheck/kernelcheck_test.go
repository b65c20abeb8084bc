package kernelcheck

import "testing"

func TestLeadingVersion(t *testing.T) {
	cases := map[string]string{
		"5.15.0-91-generic": "5.15.0",
		"6.8.0":             "6.8.0",
		"5.5":               "5.5",
		"":                  "",
		"-generic":          "",
	}
	for in, want := range cases {
		if got := leadingVersion(in); got != want {
			t.Errorf("leadingVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckRelease(t *testing.T) {
	if err := CheckRelease("5.4.0-generic"); err == nil {
		t.Error("expected 5.4.0 to be rejected as below the floor")
	}
	if err := CheckRelease("5.5.0-generic"); err != nil {
		t.Errorf("expected 5.5.0 to satisfy the floor, got %v", err)
	}
	if err := CheckRelease("6.8.0-91-generic"); err != nil {
		t.Errorf("expected 6.8.0 to satisfy the floor, got %v", err)
	}
	if err := CheckRelease("not-a-version"); err == nil {
		t.Error("expected an unparseable release to return an error")
	}
}

func TestCstr(t *testing.T) {
	b := make([]byte, 10)
	copy(b, "6.8.0")
	if got := cstr(b); got != "6.8.0" {
		t.Errorf("cstr = %q, want %q", got, "6.8.0")
	}
}
