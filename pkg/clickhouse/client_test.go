package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
)

func TestBuildOptions(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithAddress("ch.local", 0),
		WithDatabase("spp"),
		WithCredentials("", "secret"),
		WithMaxExecutionTime(90 * time.Second),
		WithAsyncInsert(true, true),
	} {
		opt(cfg)
	}

	o := buildOptions(*cfg)
	if len(o.Addr) != 1 || o.Addr[0] != "ch.local:9000" {
		t.Fatalf("addr = %v", o.Addr)
	}
	if o.Auth.Database != "spp" || o.Auth.Username != "default" || o.Auth.Password != "secret" {
		t.Fatalf("auth = %+v", o.Auth)
	}
	if o.Protocol != ch.Native {
		t.Fatalf("expected native protocol")
	}
	if o.Settings["max_execution_time"] != 90 {
		t.Fatalf("max_execution_time = %v", o.Settings["max_execution_time"])
	}
	if o.Settings["async_insert"] != 1 || o.Settings["wait_for_async_insert"] != 1 {
		t.Fatalf("async settings = %v", o.Settings)
	}
}

func TestBuildOptionsHTTP(t *testing.T) {
	cfg := defaultConfig()
	WithAddress("ch.local", 8123)(cfg)
	WithHTTP(true)(cfg)
	o := buildOptions(*cfg)
	if o.Protocol != ch.HTTP || o.Addr[0] != "ch.local:8123" {
		t.Fatalf("unexpected http options %+v", o)
	}
	if _, ok := o.Settings["async_insert"]; ok {
		t.Fatalf("async_insert should be unset")
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Fatalf("expected error without host")
	}
}
