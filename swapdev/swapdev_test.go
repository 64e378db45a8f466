package swapdev

import "testing"

func TestPoolActive(t *testing.T) {
	p := NewPool()
	if _, ok := p.Active(); ok {
		t.Fatal("Active() on empty pool: ok = true, want false")
	}

	d1 := New(64, 8)
	d2 := New(64, 8)
	p.Register(d1)
	p.Register(d2)

	if got := p.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
	active, ok := p.Active()
	if !ok {
		t.Fatal("Active(): ok = false, want true")
	}
	if active != d1 {
		t.Error("Active() did not return the first-registered device")
	}
}

func TestDeviceReadWrite(t *testing.T) {
	d := New(16, 4)
	if err := d.Write(3, 0x55); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := d.Read(3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 0x55 {
		t.Errorf("Read(3) = %#x, want 0x55", got)
	}
}
