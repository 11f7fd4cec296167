package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"golang.org/x/time/rate"

	"github.com/lab-instruments/gf1ctl/generichttp"
	"github.com/lab-instruments/gf1ctl/generichttp/funcgen"
	"github.com/lab-instruments/gf1ctl/gf1"
	"github.com/lab-instruments/gf1ctl/server/middleware/locker"
)

// ObjSetup holds the args for one generator node
type ObjSetup struct {
	// SerialNumber selects a specific GF1 on the bus; empty takes the
	// first one found
	SerialNumber string `yaml:"SerialNumber"`

	// Endpoint is the URL the routes from this device will be served on
	// ex. Endpoint="/omc/gf1" will produce routes of /omc/gf1/frequency, etc.
	Endpoint string `yaml:"Endpoint"`
}

// Config is a struct that holds the initialization parameters for the
// server.  It is to be populated by a yaml/unmarshal call.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// Mock replaces every node's hardware with an in-memory generator
	Mock bool `yaml:"Mock"`

	// Nodes is the list of generators to set up
	Nodes []ObjSetup `yaml:"Nodes"`
}

// throttle caps the rate of requests reaching the hardware.  The bridge is
// non-reentrant and every operation blocks on USB round trips, so there is
// no win in letting clients pile up faster than the bus drains.
func throttle(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				http.Error(w, "device bus saturated, slow down", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BuildMux builds a chi router with one submux per configured generator
func BuildMux(c Config) (chi.Router, error) {
	if len(c.Nodes) == 0 {
		return nil, errors.New("no nodes configured, nothing to serve")
	}
	root := chi.NewRouter()
	root.Use(middleware.Logger)
	for _, node := range c.Nodes {
		var ctl *gf1.GF1
		if c.Mock {
			ctl = gf1.New(gf1.NewMockBridge())
		} else {
			var err error
			ctl, err = gf1.Open(node.SerialNumber)
			if err != nil {
				return nil, err
			}
			if err := ctl.SetupChannels(); err != nil {
				return nil, err
			}
		}
		httper := funcgen.NewHTTPFunctionGenerator(ctl)
		lock := locker.New()
		locker.Inject(httper, lock)
		r := chi.NewRouter()
		r.Use(lock.Check)
		r.Use(throttle(rate.NewLimiter(rate.Limit(50), 10)))
		httper.RT().Bind(r)
		root.Mount(generichttp.SubMuxSanitize(node.Endpoint), r)
		log.Printf("serving GF1 %q at %s", node.SerialNumber, node.Endpoint)
	}
	return root, nil
}
