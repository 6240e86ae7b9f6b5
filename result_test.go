package hxbridge

import (
	"errors"
	"testing"
)

func TestResult(t *testing.T) {
	ok := OK()
	if ok.GetErr() != nil || ok.IsCritical() || len(ok.GetFlashes()) != 0 {
		t.Errorf("OK() = %+v", ok)
	}

	cause := errors.New("bad")
	if r := Err(cause); r.GetErr() != cause || r.IsCritical() {
		t.Errorf("Err() = %+v", r)
	}
	if r := Critical(cause); !r.IsCritical() {
		t.Error("Critical().IsCritical() = false")
	}
	if r := Critical(nil); r.IsCritical() {
		t.Error("Critical(nil) should not be critical")
	}
}

func TestResultFlashChain(t *testing.T) {
	r := OK().Flash(FlashSuccess, "one").Flash(FlashWarning, "two")

	flashes := r.GetFlashes()
	if len(flashes) != 2 {
		t.Fatalf("GetFlashes() = %d, want 2", len(flashes))
	}
	if flashes[0].Level != FlashSuccess || flashes[1].Message != "two" {
		t.Errorf("GetFlashes() = %+v", flashes)
	}
}
