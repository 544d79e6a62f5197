package regsim

import (
	"errors"
	"testing"

	"tofcam-go/regs"
)

func TestDevice_CountsAndFaults(t *testing.T) {
	d := New(map[regs.Name]uint32{"a": 1})

	if v, err := d.Get("a", true); err != nil || v != 1 {
		t.Fatalf("Get(a) = %d, %v", v, err)
	}
	if _, err := d.Get("missing", false); !errors.Is(err, regs.ErrUnknownRegister) {
		t.Fatalf("Get(missing) err = %v", err)
	}
	if err := d.Set("a", 5); err != nil {
		t.Fatal(err)
	}
	d.FailSet("a", nil)
	if err := d.Set("a", 6); !errors.Is(err, ErrInjected) {
		t.Fatalf("Set with fault err = %v", err)
	}
	if v, _ := d.Peek("a"); v != 5 {
		t.Fatalf("failed Set changed value to %d", v)
	}
	if d.Reads("a") != 1 || d.Writes("a") != 2 || d.TotalWrites() != 2 {
		t.Fatalf("counts reads=%d writes=%d total=%d", d.Reads("a"), d.Writes("a"), d.TotalWrites())
	}
	d.ClearFaults()
	if err := d.Set("a", 6); err != nil {
		t.Fatalf("Set after ClearFaults: %v", err)
	}
}

func TestDevice_RejectOutside(t *testing.T) {
	d := New(map[regs.Name]uint32{"cnt": 0})
	d.RejectOutside("cnt", "cnt_fail", 10, 100)

	_ = d.Set("cnt", 5)
	if v, _ := d.Peek("cnt_fail"); v != 1 {
		t.Fatalf("flag = %d after out-of-range write, want 1", v)
	}
	_ = d.Set("cnt", 50)
	if v, _ := d.Peek("cnt_fail"); v != 0 {
		t.Fatalf("flag = %d after valid write, want 0", v)
	}
}

func TestDevice_ReadOnlyAndRaw(t *testing.T) {
	d := New(map[regs.Name]uint32{"rows": 240})
	d.MarkReadOnly("rows")
	if err := d.Set("rows", 1); !errors.Is(err, regs.ErrReadOnly) {
		t.Fatalf("Set(ro) err = %v", err)
	}
	if err := d.WriteRegister(0x5c3b, 1); err != nil {
		t.Fatal(err)
	}
	d.FailRaw(0x10, nil)
	if err := d.WriteRegister(0x10, 1); err == nil {
		t.Fatal("raw fault not reported")
	}
	if got := d.RawWrites(); len(got) != 1 || got[0] != (RawWrite{0x5c3b, 1}) {
		t.Fatalf("RawWrites = %v", got)
	}
}
