package device

import (
	"context"
	"errors"
	"testing"
)

func TestParseCDD(t *testing.T) {
	t.Run("flattens the first printer record", func(t *testing.T) {
		doc := []byte(`{"printers":[{"name":"X","capabilities":{"printer":{"color":"rgb"}}}]}`)

		cdd, err := ParseCDD(doc)
		if err != nil {
			t.Fatalf("ParseCDD() error = %v", err)
		}
		if got := cdd.Capabilities["color"]; got != "rgb" {
			t.Errorf("capabilities[color] = %v, want rgb", got)
		}
		if got := cdd.Fields["name"]; got != "X" {
			t.Errorf("fields[name] = %v, want X", got)
		}
		if _, ok := cdd.Fields["capabilities"]; ok {
			t.Error("capabilities should not appear among flattened fields")
		}
	})

	t.Run("only the first printer is consulted", func(t *testing.T) {
		doc := []byte(`{"printers":[
			{"name":"first","capabilities":{"printer":{"copies":2}}},
			{"name":"second","capabilities":{"printer":{"copies":9}}}
		]}`)

		cdd, err := ParseCDD(doc)
		if err != nil {
			t.Fatalf("ParseCDD() error = %v", err)
		}
		if got := cdd.Fields["name"]; got != "first" {
			t.Errorf("fields[name] = %v, want first", got)
		}
	})

	failures := []struct {
		name string
		doc  string
		want error
	}{
		{"empty document", "", ErrCDDEmpty},
		{"non-JSON document", "<html>console</html>", ErrCDDEmpty},
		{"missing printers key", `{"version":"1.0"}`, ErrCDDNoPrinters},
		{"empty printers list", `{"printers":[]}`, ErrCDDNoPrinters},
		{"missing capabilities", `{"printers":[{"name":"X"}]}`, ErrCDDNoCapabilities},
		{"missing printer sub-map", `{"printers":[{"name":"X","capabilities":{}}]}`, ErrCDDNoCapabilities},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			cdd, err := ParseCDD([]byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("error %v does not match ErrProtocol", err)
			}
			if cdd != nil {
				t.Errorf("cdd = %+v, want nil", cdd)
			}
		})
	}
}

func TestFetchCapabilities(t *testing.T) {
	t.Run("requires a cloud device id", func(t *testing.T) {
		cons := newMockConsole()
		coord := newTestCoordinator(t, &mockPrivet{}, &mockCloud{}, cons, nil)

		if _, err := coord.FetchCapabilities(context.Background()); !errors.Is(err, ErrNotRegistered) {
			t.Fatalf("error = %v, want ErrNotRegistered", err)
		}
		if cons.calls["capabilities"] != 0 {
			t.Errorf("capability calls = %d, want 0", cons.calls["capabilities"])
		}
	})

	t.Run("parses the console document", func(t *testing.T) {
		mp := &mockPrivet{finishID: "dev-3"}
		cons := newMockConsole()
		cons.capDoc = []byte(`{"printers":[{"id":"dev-3","capabilities":{"printer":{"duplex":true}}}]}`)
		coord := newTestCoordinator(t, mp, &mockCloud{}, cons, nil)
		advance(t, coord, mp, Completed)

		cdd, err := coord.FetchCapabilities(context.Background())
		if err != nil {
			t.Fatalf("FetchCapabilities() error = %v", err)
		}
		if got := cdd.Capabilities["duplex"]; got != true {
			t.Errorf("capabilities[duplex] = %v, want true", got)
		}
	})

	t.Run("surfaces parse failures", func(t *testing.T) {
		mp := &mockPrivet{finishID: "dev-3"}
		cons := newMockConsole()
		cons.capDoc = []byte(`{"version":"1.0"}`)
		coord := newTestCoordinator(t, mp, &mockCloud{}, cons, nil)
		advance(t, coord, mp, Completed)

		if _, err := coord.FetchCapabilities(context.Background()); !errors.Is(err, ErrCDDNoPrinters) {
			t.Errorf("error = %v, want ErrCDDNoPrinters", err)
		}
	})
}
