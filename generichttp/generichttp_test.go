package generichttp

import (
	"go/types"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSubMuxSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"omc/gf1", "/omc/gf1/*"},
		{"/omc/gf1", "/omc/gf1/*"},
		{"/omc/gf1/", "/omc/gf1/*"},
		{"/omc/gf1/*", "/omc/gf1/*"},
	}
	for _, tc := range cases {
		if got := SubMuxSanitize(tc.in); got != tc.want {
			t.Errorf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestHumanPayloadEncodesFloat(t *testing.T) {
	w := httptest.NewRecorder()
	hp := HumanPayload{T: types.Float64, Float: 2.5}
	hp.EncodeAndRespond(w, nil)
	body := strings.TrimSpace(w.Body.String())
	if body != `{"f64":2.5}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestHumanPayloadRejectsUnmappedType(t *testing.T) {
	w := httptest.NewRecorder()
	hp := HumanPayload{T: types.Complex128}
	hp.EncodeAndRespond(w, nil)
	if w.Code != 500 {
		t.Errorf("expected 500 for unmapped type, got %d", w.Code)
	}
}
