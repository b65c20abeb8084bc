package version

import "testing"

func TestDisplayString(t *testing.T) {
	got := DisplayString()
	want := releaseVersion.String() + " (" + gitVersion + ")"
	if got != want {
		t.Errorf("DisplayString() = %q, want %q", got, want)
	}
}
