package jsonparse

import "testing"

func TestRead(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantOK bool
	}{
		{name: "valid object", body: `{"a":1,"b":"two"}`, wantOK: true},
		{name: "empty object", body: `{}`, wantOK: true},
		{name: "array", body: `[1,2,3]`, wantOK: false},
		{name: "bare string", body: `"hello"`, wantOK: false},
		{name: "malformed", body: `{"a":`, wantOK: false},
		{name: "empty body", body: ``, wantOK: false},
		{name: "html error page", body: `<html><body>404</body></html>`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, ok := Read([]byte(tt.body))
			if ok != tt.wantOK {
				t.Fatalf("Read(%q) ok = %v, want %v", tt.body, ok, tt.wantOK)
			}
			if ok && fields == nil {
				t.Error("Read() returned nil fields with ok=true")
			}
		})
	}
}

func TestGetValue(t *testing.T) {
	body := []byte(`{"token":"abc123","attempts":3,"nested":{"x":1}}`)

	if v, ok := GetValue(body, "token"); !ok || v != "abc123" {
		t.Errorf("GetValue(token) = %q, %v; want \"abc123\", true", v, ok)
	}

	// Non-string scalars are stringified.
	if v, ok := GetValue(body, "attempts"); !ok || v != "3" {
		t.Errorf("GetValue(attempts) = %q, %v; want \"3\", true", v, ok)
	}

	if _, ok := GetValue(body, "missing"); ok {
		t.Error("GetValue(missing) ok = true, want false")
	}

	if _, ok := GetValue([]byte("not json"), "token"); ok {
		t.Error("GetValue on non-JSON ok = true, want false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "success payload", body: `{"success":true,"xsrf_token":"t"}`, want: true},
		{name: "error payload", body: `{"error":"printer not found"}`, want: false},
		{name: "non json", body: `oops`, want: false},
		{name: "empty object", body: `{}`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate([]byte(tt.body)); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}
