package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"
)

func TestClientGetQuery(t *testing.T) {
	var got url.Values
	var xrw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		xrw = r.Header.Get("X-Requested-With")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"title":"Hello"}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	reply, err := c.Do(context.Background(), "get", "/posts/1", map[string]any{
		"q":    "go",
		"tags": []any{"a", "b"},
		"f":    map[string]any{"x": 1},
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	want := url.Values{"q": {"go"}, "tags[]": {"a", "b"}, "f[x]": {"1"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	if xrw != "XMLHttpRequest" {
		t.Errorf("X-Requested-With = %q", xrw)
	}
	if reply.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", reply.Status)
	}
	if diff := cmp.Diff(map[string]any{"id": float64(1), "title": "Hello"}, reply.Data); diff != "" {
		t.Errorf("Data mismatch (-want +got):\n%s", diff)
	}
}

func TestClientPostBody(t *testing.T) {
	tests := []struct {
		name   string
		codec  Codec
		decode func([]byte, any) error
	}{
		{"json", JSON, json.Unmarshal},
		{"msgpack", MsgPack, msgpack.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			var ct string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ct = r.Header.Get("Content-Type")
				b, _ := io.ReadAll(r.Body)
				_ = tt.decode(b, &body)
				w.Header().Set("Content-Type", tt.codec.ContentType())
				out, _ := tt.codec.Marshal(map[string]any{"ok": true})
				_, _ = w.Write(out)
			}))
			defer srv.Close()

			c := New(WithCodec(tt.codec))
			reply, err := c.Do(context.Background(), http.MethodPost, srv.URL+"/save", map[string]any{"name": "Sara"})
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if ct != tt.codec.ContentType() {
				t.Errorf("Content-Type = %q, want %q", ct, tt.codec.ContentType())
			}
			if body["name"] != "Sara" {
				t.Errorf("server saw name = %v", body["name"])
			}
			m, _ := reply.Data.(map[string]any)
			if m["ok"] != true {
				t.Errorf("Data = %v, want ok=true", reply.Data)
			}
		})
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"name taken"}`))
	}))
	defer srv.Close()

	_, err := New().Do(context.Background(), http.MethodPost, srv.URL, nil)
	se, ok := AsStatusError(err)
	if !ok {
		t.Fatalf("Do() error = %v, want *StatusError", err)
	}
	if se.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d", se.Status)
	}
	if se.Message != "name taken" {
		t.Errorf("Message = %q", se.Message)
	}
	if diff := cmp.Diff(map[string]any{"message": "name taken"}, se.Data); diff != "" {
		t.Errorf("Data mismatch (-want +got):\n%s", diff)
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := New().Do(context.Background(), http.MethodGet, addr, nil)
	se, ok := AsStatusError(err)
	if !ok {
		t.Fatalf("Do() error = %v, want *StatusError", err)
	}
	if se.Status != 0 || se.StatusText != "error" {
		t.Errorf("StatusError = %+v, want status 0 text error", se)
	}
	if errors.Unwrap(se) == nil {
		t.Error("Unwrap() = nil, want underlying cause")
	}
}

func TestClientTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>hi</p>"))
	}))
	defer srv.Close()

	reply, err := New().Do(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if reply.Data != "<p>hi</p>" {
		t.Errorf("Data = %v", reply.Data)
	}
}

func TestCodecByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "json", false},
		{"JSON", "json", false},
		{"msgpack", "msgpack", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		c, err := CodecByName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("CodecByName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && c.Name() != tt.want {
			t.Errorf("CodecByName(%q) = %s, want %s", tt.name, c.Name(), tt.want)
		}
	}
}
