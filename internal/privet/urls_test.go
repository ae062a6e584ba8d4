package privet

import (
	"strings"
	"testing"
)

func TestNewURLSet(t *testing.T) {
	urls := NewURLSet("192.168.1.50", 8080, "tester@example.com")

	if urls.Info != "http://192.168.1.50:8080/privet/info" {
		t.Errorf("Info = %q", urls.Info)
	}

	want := "http://192.168.1.50:8080/privet/register?action=start&user=tester%40example.com"
	if urls.RegisterStart != want {
		t.Errorf("RegisterStart = %q, want %q", urls.RegisterStart, want)
	}

	// Each action appears in its own URL.
	tests := []struct {
		url    string
		action string
	}{
		{urls.RegisterStart, "action=start&"},
		{urls.RegisterGetClaimToken, "action=getClaimToken&"},
		{urls.RegisterComplete, "action=complete&"},
		{urls.RegisterCancel, "action=cancel&"},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.url, tt.action) {
			t.Errorf("url %q does not contain %q", tt.url, tt.action)
		}
	}
}
