package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildMuxRequiresNodes(t *testing.T) {
	_, err := BuildMux(Config{Addr: ":8000"})
	if err == nil {
		t.Error("expected an error for an empty node list")
	}
}

func TestBuildMuxMockModeServesGenerator(t *testing.T) {
	c := Config{
		Addr: ":8000",
		Mock: true,
		Nodes: []ObjSetup{
			{Endpoint: "/omc/gf1"},
		},
	}
	mux, err := BuildMux(c)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/omc/gf1/frequency", "application/json", strings.NewReader(`{"f64": 1000}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 setting frequency on a mock node, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/omc/gf1/lock")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected the lock route to be injected, got %d", resp.StatusCode)
	}
}
