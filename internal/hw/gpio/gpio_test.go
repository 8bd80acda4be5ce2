package gpio

import "testing"

func TestMockDriver_ReadBackWrittenLevel(t *testing.T) {
	d := &MockDriver{}

	if lvl, _ := d.ReadPin(4); lvl != Low {
		t.Errorf("unwritten pin = %v, want LOW", lvl)
	}
	if err := d.WritePin(4, High); err != nil {
		t.Fatalf("WritePin: %v", err)
	}
	if lvl, _ := d.ReadPin(4); lvl != High {
		t.Errorf("pin 4 = %v, want HIGH", lvl)
	}
}

func TestNewDriver_Mock(t *testing.T) {
	d, err := NewDriver(true)
	if err != nil {
		t.Fatalf("NewDriver(mock): %v", err)
	}
	if _, ok := d.(*MockDriver); !ok {
		t.Errorf("NewDriver(true) = %T, want *MockDriver", d)
	}
}

func TestLevel_String(t *testing.T) {
	if High.String() != "HIGH" || Low.String() != "LOW" {
		t.Errorf("Level strings = %q/%q", High.String(), Low.String())
	}
}
