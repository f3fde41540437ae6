package calibrate

import "testing"

func TestVariablePrintUsesDefaultFormat(t *testing.T) {
	v := Variable{Name: "x", Min: 0, Max: 1}
	got := v.Print(3.5)
	if got != "3.5" {
		t.Fatalf("Print() = %q, want %q", got, "3.5")
	}
}

func TestVariablePrintUsesExplicitFormat(t *testing.T) {
	v := Variable{Name: "x", Format: "%.3f", Min: 0, Max: 1}
	got := v.Print(3.5)
	if got != "3.500" {
		t.Fatalf("Print() = %q, want %q", got, "3.500")
	}
}

func TestValueAtSetValueAtRoundTrip(t *testing.T) {
	c := &Calibration{
		Variables: []Variable{{Name: "x"}, {Name: "y"}},
		Values:    make([]float64, 2*2),
	}
	c.SetValueAt(1, 0, 9.0)
	c.SetValueAt(1, 1, -2.0)
	if got := c.ValueAt(1, 0); got != 9.0 {
		t.Fatalf("ValueAt(1,0) = %v, want 9.0", got)
	}
	if got := c.ValueAt(1, 1); got != -2.0 {
		t.Fatalf("ValueAt(1,1) = %v, want -2.0", got)
	}
}

func TestRowAtReturnsIndependentCopy(t *testing.T) {
	c := &Calibration{
		Variables: []Variable{{Name: "x"}, {Name: "y"}},
		Values:    make([]float64, 2*2),
	}
	c.SetValueAt(1, 0, 9.0)
	c.SetValueAt(1, 1, -2.0)

	row := c.RowAt(1)
	c.SetValueAt(1, 0, 0.0)
	if row[0] != 9.0 || row[1] != -2.0 {
		t.Fatalf("RowAt(1) = %v, want [9 -2] unaffected by the later SetValueAt", row)
	}
}

type closeTracker struct {
	closed bool
	err    error
}

func (c *closeTracker) Bytes() []byte { return nil }
func (c *closeTracker) Close() error  { c.closed = true; return c.err }

func TestCloseClosesEveryTemplate(t *testing.T) {
	a := &closeTracker{}
	b := &closeTracker{}
	c := &Calibration{Templates: [][]TemplateFile{{a, b}}}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatalf("Close() did not close every template: a=%v b=%v", a.closed, b.closed)
	}
}

func TestAlgorithmString(t *testing.T) {
	tests := []struct {
		a    Algorithm
		want string
	}{
		{MonteCarlo, "montecarlo"},
		{Sweep, "sweep"},
		{Genetic, "genetic"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Fatalf("Algorithm(%d).String() = %q, want %q", tt.a, got, tt.want)
		}
	}
}
