// Package funcgen exposes control of function generators over HTTP
package funcgen

import (
	"encoding/json"
	"net/http"

	"github.com/lab-instruments/gf1ctl/generichttp"
)

// Controller is the basic interface of a write-only function generator
type Controller interface {
	// SetFrequency configures the output frequency, in kHz
	SetFrequency(float64) error

	// SetAmplitude configures the output amplitude, in Vpp
	SetAmplitude(float64) error

	// Start begins output of the configured signal
	Start() error

	// Stop halts output
	Stop() error
}

// WaveformController can select the output shape from a fixed menu
type WaveformController interface {
	// SetSineWave selects sinusoidal output
	SetSineWave() error

	// SetTriangleWave selects triangular output
	SetTriangleWave() error
}

// Clearer can return the instrument to its power-up state
type Clearer interface {
	Clear() error
}

// Resetter can reset the instrument
type Resetter interface {
	Reset() error
}

// Quantizer predicts the value the hardware will actually realize for a
// commanded one, so clients can account for register resolution without
// touching the device
type Quantizer interface {
	ExpectedFrequency(float64) float64
	ExpectedAmplitude(float64) float64
}

// Identifier exposes the identity of the instrument
type Identifier interface {
	ManufacturerDesc() (string, error)
	ProductDesc() (string, error)
	SerialDesc() (string, error)
	HardwareRevision() (string, error)
}

// Identity is the JSON form of an Identifier's data
type Identity struct {
	Manufacturer string `json:"manufacturer"`
	Product      string `json:"product"`
	Serial       string `json:"serial"`
	Revision     string `json:"revision"`
}

// SetFrequency configures the output frequency of the generator
func SetFrequency(c Controller) http.HandlerFunc {
	return generichttp.SetFloat(c.SetFrequency)
}

// SetAmplitude configures the output amplitude of the generator
func SetAmplitude(c Controller) http.HandlerFunc {
	return generichttp.SetFloat(c.SetAmplitude)
}

// SetRun starts or stops output based on json:bool
func SetRun(c Controller) http.HandlerFunc {
	return generichttp.SetBool(c.Start, c.Stop)
}

// SetWaveform selects the output shape from json:str ("sine" or "triangle")
func SetWaveform(c WaveformController) http.HandlerFunc {
	return generichttp.SetString(func(s string) error {
		switch s {
		case "sine":
			return c.SetSineWave()
		case "triangle":
			return c.SetTriangleWave()
		default:
			return &UnknownWaveformError{Waveform: s}
		}
	})
}

// UnknownWaveformError is generated when a client requests a shape the
// generator does not produce
type UnknownWaveformError struct {
	Waveform string
}

func (e *UnknownWaveformError) Error() string {
	return "unknown waveform " + e.Waveform + ", must be sine or triangle"
}

// ExpectedFrequency predicts the realizable frequency for json:f64
func ExpectedFrequency(q Quantizer) http.HandlerFunc {
	return quantize(q.ExpectedFrequency)
}

// ExpectedAmplitude predicts the realizable amplitude for json:f64
func ExpectedAmplitude(q Quantizer) http.HandlerFunc {
	return quantize(q.ExpectedAmplitude)
}

func quantize(fcn func(float64) float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := generichttp.FloatT{}
		err := json.NewDecoder(r.Body).Decode(&f)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generichttp.FloatT{F64: fcn(f.F64)})
	}
}

// GetIdentity reads the descriptors and revision and returns them as JSON
func GetIdentity(id Identifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			ident Identity
			err   error
		)
		if ident.Manufacturer, err = id.ManufacturerDesc(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if ident.Product, err = id.ProductDesc(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if ident.Serial, err = id.SerialDesc(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if ident.Revision, err = id.HardwareRevision(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ident)
	}
}

// HTTPFunctionGenerator wraps a function generator in an HTTP route table
type HTTPFunctionGenerator struct {
	// Ctl is the underlying generator
	Ctl Controller

	// RouteTable maps method/path pairs to handlers
	RouteTable generichttp.RouteTable
}

// NewHTTPFunctionGenerator returns a new HTTP wrapper around an existing
// generator, with routes for every optional capability it implements
func NewHTTPFunctionGenerator(ctl Controller) HTTPFunctionGenerator {
	h := HTTPFunctionGenerator{Ctl: ctl}
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodPost, Path: "/frequency"}: SetFrequency(ctl),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/amplitude"}: SetAmplitude(ctl),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/run"}:       SetRun(ctl),
	}
	if wfctl, ok := ctl.(WaveformController); ok {
		rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/waveform"}] = SetWaveform(wfctl)
	}
	if clr, ok := ctl.(Clearer); ok {
		rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/clear"}] = generichttp.Call(clr.Clear)
	}
	if rst, ok := ctl.(Resetter); ok {
		rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/reset"}] = generichttp.Call(rst.Reset)
	}
	if q, ok := ctl.(Quantizer); ok {
		rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/expected/frequency"}] = ExpectedFrequency(q)
		rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/expected/amplitude"}] = ExpectedAmplitude(q)
	}
	if id, ok := ctl.(Identifier); ok {
		rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/identity"}] = GetIdentity(id)
	}
	h.RouteTable = rt
	return h
}

// RT satisfies the generichttp.HTTPer interface
func (h HTTPFunctionGenerator) RT() generichttp.RouteTable {
	return h.RouteTable
}
