package tools

import (
	"testing"
)

func TestParseBBox(t *testing.T) {
	bbox, err := ParseBBox("0,10,100,110")
	if err != nil {
		t.Fatal(err)
	}
	if bbox.Xmin != 0 || bbox.Ymin != 10 || bbox.Xmax != 100 || bbox.Ymax != 110 {
		t.Errorf("unexpected box x[%f, %f] y[%f, %f]", bbox.Xmin, bbox.Xmax, bbox.Ymin, bbox.Ymax)
	}
}

func TestParseBBoxAllowsSpaces(t *testing.T) {
	bbox, err := ParseBBox(" -20, -20, 50, 50 ")
	if err != nil {
		t.Fatal(err)
	}
	if bbox.Xmin != -20 || bbox.Ymax != 50 {
		t.Errorf("unexpected box x[%f, %f] y[%f, %f]", bbox.Xmin, bbox.Xmax, bbox.Ymin, bbox.Ymax)
	}
}

// An empty value means no spatial constraint
func TestParseBBoxEmpty(t *testing.T) {
	bbox, err := ParseBBox("")
	if err != nil {
		t.Fatal(err)
	}
	if bbox != nil {
		t.Errorf("expected nil box for empty value, got %+v", bbox)
	}
}

func TestParseBBoxRejectsBadInput(t *testing.T) {
	cases := []string{
		"0,10,100",
		"0,10,100,110,120",
		"a,b,c,d",
		"0,10,,110",
	}
	for _, value := range cases {
		if _, err := ParseBBox(value); err == nil {
			t.Errorf("expected an error for %q", value)
		}
	}
}

// The zoffset flag stays a string so an unset flag is distinguishable
// from an explicit zero
func TestParseFlagsForCommandPointsZOffset(t *testing.T) {
	flags := ParseFlagsForCommandPoints([]string{"-input", "in.las", "-output", "out.las"})
	if *flags.ZOffset != "" {
		t.Errorf("expected an empty zoffset when unset, got %q", *flags.ZOffset)
	}

	flags = ParseFlagsForCommandPoints([]string{"-zoffset", "0", "-input", "in.las", "-output", "out.las"})
	if *flags.ZOffset != "0" {
		t.Errorf("expected an explicit zero to survive parsing, got %q", *flags.ZOffset)
	}
}

func TestIsFloatEqual(t *testing.T) {
	if !IsFloatEqual(1.0, 1.0+FloatMin/2) {
		t.Error("expected values within tolerance to compare equal")
	}
	if IsFloatEqual(1.0, 1.1) {
		t.Error("expected distant values to compare unequal")
	}
}
