package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/privet-harness/internal/transport"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, transport.New(5*time.Second, nil), nil), server
}

func TestLookupPrinter(t *testing.T) {
	t.Run("returns record body", func(t *testing.T) {
		var gotPath, gotAuth string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.RequestURI()
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `{"printers":[{"name":"lab"}]}`)
		}))

		body, err := client.LookupPrinter(context.Background(), "dev-1", "tok")
		if err != nil {
			t.Fatalf("LookupPrinter() error = %v", err)
		}
		if gotPath != "/printer?printerid=dev-1&usecdd=True" {
			t.Errorf("path = %q", gotPath)
		}
		if gotAuth != "Bearer tok" {
			t.Errorf("Authorization = %q", gotAuth)
		}
		if len(body) == 0 {
			t.Error("empty body returned")
		}
	})

	t.Run("non-JSON is bad payload", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>login required</html>")
		}))

		_, err := client.LookupPrinter(context.Background(), "dev-1", "tok")
		if !errors.Is(err, ErrBadPayload) {
			t.Errorf("error = %v, want ErrBadPayload", err)
		}
	})

	t.Run("error payload is rejection", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":"printer not found"}`)
		}))

		_, err := client.LookupPrinter(context.Background(), "dev-1", "tok")
		if !errors.Is(err, ErrRequestRejected) {
			t.Errorf("error = %v, want ErrRequestRejected", err)
		}
	})
}

func TestDeletePrinter(t *testing.T) {
	t.Run("validated success", func(t *testing.T) {
		var gotMethod, gotPath string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.RequestURI()
			fmt.Fprint(w, `{"success":true}`)
		}))

		if err := client.DeletePrinter(context.Background(), "dev-1", "tok"); err != nil {
			t.Fatalf("DeletePrinter() error = %v", err)
		}
		if gotMethod != http.MethodPost {
			t.Errorf("method = %q, want POST", gotMethod)
		}
		if gotPath != "/delete?printerid=dev-1" {
			t.Errorf("path = %q", gotPath)
		}
	})

	t.Run("error payload fails", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":"unauthorised"}`)
		}))

		err := client.DeletePrinter(context.Background(), "dev-1", "tok")
		if !errors.Is(err, ErrRequestRejected) {
			t.Errorf("error = %v, want ErrRequestRejected", err)
		}
	})
}

func TestSubmitClaim(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "explicit success", body: `{"success":true}`, wantErr: nil},
		{name: "explicit failure", body: `{"success":false}`, wantErr: ErrRequestRejected},
		{name: "success absent", body: `{"request":{}}`, wantErr: ErrRequestRejected},
		{name: "non json", body: `oops`, wantErr: ErrBadPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := New(server.URL, transport.New(5*time.Second, nil), nil)
			err := client.SubmitClaim(context.Background(), server.URL+"/confirm?token=t", "tok")

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("SubmitClaim() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SubmitClaim() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
