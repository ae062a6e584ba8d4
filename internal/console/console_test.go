package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/privet-harness/internal/cloud"
	"github.com/nerrad567/privet-harness/internal/infrastructure/config"
	"github.com/nerrad567/privet-harness/internal/transport"
)

func testSNMPConfig() config.SNMPConfig {
	return config.SNMPConfig{Community: "public", Port: 161, Timeout: 1, Retries: 0}
}

func newCloudConsole(t *testing.T, handler http.Handler) *CloudConsole {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := cloud.New(server.URL, transport.New(5*time.Second, nil), nil)
	return NewCloudConsole(client, "dev-1", "tok", nil)
}

func recordHandler(record string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"printers":[%s]}`, record)
	})
}

func TestCloudConsoleGetStatus(t *testing.T) {
	t.Run("returns connection status", func(t *testing.T) {
		c := newCloudConsole(t, recordHandler(`{"connectionStatus":"ONLINE"}`))

		status, err := c.GetStatus(context.Background(), "lab")
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if status != "ONLINE" {
			t.Errorf("status = %q, want ONLINE", status)
		}
	})

	t.Run("missing field is unavailable", func(t *testing.T) {
		c := newCloudConsole(t, recordHandler(`{"name":"lab"}`))

		if _, err := c.GetStatus(context.Background(), "lab"); !errors.Is(err, ErrFieldUnavailable) {
			t.Errorf("error = %v, want ErrFieldUnavailable", err)
		}
	})

	t.Run("empty printers list is bad payload", func(t *testing.T) {
		c := newCloudConsole(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"printers":[]}`)
		}))

		if _, err := c.GetStatus(context.Background(), "lab"); !errors.Is(err, cloud.ErrBadPayload) {
			t.Errorf("error = %v, want ErrBadPayload", err)
		}
	})
}

func TestCloudConsoleStateFields(t *testing.T) {
	record := `{
		"connectionStatus": "ONLINE",
		"uiState": {
			"summary": {"state": "ERROR", "caption": "Paper jam"},
			"messages": ["Tray 2 open"]
		}
	}`

	t.Run("error state from ui summary", func(t *testing.T) {
		c := newCloudConsole(t, recordHandler(record))

		got, err := c.GetErrorState(context.Background(), "lab")
		if err != nil {
			t.Fatalf("GetErrorState() error = %v", err)
		}
		if got != "Paper jam" {
			t.Errorf("error state = %q, want %q", got, "Paper jam")
		}
	})

	t.Run("no warning when summary is an error", func(t *testing.T) {
		c := newCloudConsole(t, recordHandler(record))

		got, err := c.GetWarningState(context.Background(), "lab")
		if err != nil {
			t.Fatalf("GetWarningState() error = %v", err)
		}
		if got != "" {
			t.Errorf("warning state = %q, want empty", got)
		}
	})

	t.Run("state messages include summary and lines", func(t *testing.T) {
		c := newCloudConsole(t, recordHandler(record))

		messages, err := c.GetStateMessages(context.Background(), "lab")
		if err != nil {
			t.Fatalf("GetStateMessages() error = %v", err)
		}
		want := []string{"Paper jam", "Tray 2 open"}
		if len(messages) != len(want) {
			t.Fatalf("messages = %v, want %v", messages, want)
		}
		for i := range want {
			if messages[i] != want[i] {
				t.Errorf("messages[%d] = %q, want %q", i, messages[i], want[i])
			}
		}
	})

	t.Run("missing ui state reads as clear", func(t *testing.T) {
		c := newCloudConsole(t, recordHandler(`{"connectionStatus":"ONLINE"}`))

		got, err := c.GetErrorState(context.Background(), "lab")
		if err != nil {
			t.Fatalf("GetErrorState() error = %v", err)
		}
		if got != "" {
			t.Errorf("error state = %q, want empty", got)
		}
	})
}

func TestCloudConsoleGetDetails(t *testing.T) {
	c := newCloudConsole(t, recordHandler(`{"name":"lab","isTosAccepted":true,"queueSize":3,"uiState":{}}`))

	details, err := c.GetDetails(context.Background(), "lab")
	if err != nil {
		t.Fatalf("GetDetails() error = %v", err)
	}
	if details["name"] != "lab" {
		t.Errorf("name = %q", details["name"])
	}
	if details["isTosAccepted"] != "true" {
		t.Errorf("isTosAccepted = %q", details["isTosAccepted"])
	}
	if details["queueSize"] != "3" {
		t.Errorf("queueSize = %q", details["queueSize"])
	}
	if _, ok := details["uiState"]; ok {
		t.Error("nested objects should not appear in details")
	}
}

func TestDecodeErrorState(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"no bits set", []byte{0x00}, ""},
		{"empty octets", nil, ""},
		{"no paper", []byte{0x40}, "noPaper"},
		{"jammed and door open", []byte{0x0c}, "doorOpen,jammed"},
		{"all bits", []byte{0xff}, "lowPaper,noPaper,lowToner,noToner,doorOpen,jammed,offline,serviceRequested"},
		{"second octet ignored", []byte{0x80, 0xff}, "lowPaper"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeErrorState(tt.raw); got != tt.want {
				t.Errorf("decodeErrorState(%v) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSNMPConsoleCapabilityDocument(t *testing.T) {
	c := NewSNMPConsole("192.0.2.1", testSNMPConfig(), nil)

	if _, err := c.GetCapabilityDocument(context.Background(), "dev-1"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
}
