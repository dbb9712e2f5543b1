package binding

import (
	"reflect"
	"testing"
)

func TestInterpolateReplacesKnownNames(t *testing.T) {
	vars := map[string]string{"tag": "TAG-2026-0001", "sector": "RH"}
	got := Interpolate("TI ${sector} / ${ TAG }", vars)
	if got != "TI RH / TAG-2026-0001" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestInterpolateKeepsUnknownPlaceholders(t *testing.T) {
	got := Interpolate("${model} ${foo}", map[string]string{"model": "Dell"})
	if got != "Dell ${foo}" {
		t.Fatalf("unknown placeholder should stay, got %q", got)
	}
}

func TestInterpolateWithoutVars(t *testing.T) {
	if got := Interpolate("ETIQUETAS ${tag}", nil); got != "ETIQUETAS ${tag}" {
		t.Fatalf("expected text unchanged, got %q", got)
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("${Tag}-${sector}-${tag}")
	want := []string{"tag", "sector"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
