package webclient_test

import (
	"strings"
	"testing"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/testutil"
	"github.com/cayfen/webscan/internal/webclient"
)

func TestNew_DefaultBackendIsNetHTTP(t *testing.T) {
	t.Parallel()
	wc, err := webclient.New(webclient.Config{}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wc.Close()
	if _, ok := wc.(*webclient.NetHTTPClient); !ok {
		t.Errorf("expected *NetHTTPClient, got %T", wc)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	t.Parallel()
	_, err := webclient.New(webclient.Config{Backend: "gopherscope"}, &testutil.DummyLogger{})
	if err == nil {
		t.Fatal("expected error for unregistered backend")
	}
	if !strings.Contains(err.Error(), "not registered") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestListBackends_IncludesBuiltins(t *testing.T) {
	t.Parallel()
	names := webclient.ListBackends()
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"nethttp", "chromedp"} {
		if !have[want] {
			t.Errorf("expected backend %q in %v", want, names)
		}
	}
}

func TestRegisterBackend_CustomBackend(t *testing.T) {
	fake := &testutil.DummyWebClient{}
	webclient.RegisterBackend("dummy-test-backend", func(cfg webclient.Config, logger logging.Logger) (webclient.WebClient, error) {
		return fake, nil
	})

	wc, err := webclient.New(webclient.Config{Backend: "dummy-test-backend"}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if wc != fake {
		t.Error("expected the registered constructor to be used")
	}
}
