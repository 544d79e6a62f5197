package calib

import (
	"errors"
	"testing"
)

func TestMap_GetAndGetFloat(t *testing.T) {
	m := Map{}
	m.Set("calib", "fx", "224.5")
	m.Set("calib", "phasecorrection", "file:phase.bin")

	if v, err := m.GetFloat("calib", "fx"); err != nil || v != 224.5 {
		t.Fatalf("GetFloat(fx) = %v, %v", v, err)
	}
	if v, err := m.Get("calib", "phasecorrection"); err != nil || v != "file:phase.bin" {
		t.Fatalf("Get(phasecorrection) = %q, %v", v, err)
	}
	if _, err := m.GetFloat("calib", "phasecorrection"); err == nil {
		t.Fatal("non-numeric GetFloat accepted")
	}
	if _, err := m.Get("calib", "fy"); !errors.Is(err, ErrMissing) {
		t.Fatalf("Get(missing key) err = %v", err)
	}
	if _, err := m.Get("lens", "fx"); !errors.Is(err, ErrMissing) {
		t.Fatalf("Get(missing section) err = %v", err)
	}
}
