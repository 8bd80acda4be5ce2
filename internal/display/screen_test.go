package display

import (
	"reflect"
	"testing"
)

func TestScreen_DrawAndClear(t *testing.T) {
	s := New()
	s.SetTitle("Select Host")
	s.AddLine("magloopcontroller20", true)
	s.AddLine("magloopcontroller40", false)
	s.SetKeys("<", "SELECT", ">")

	if s.Title() != "Select Host" {
		t.Errorf("Title = %q", s.Title())
	}
	want := []Line{{"magloopcontroller20", true}, {"magloopcontroller40", false}}
	if !reflect.DeepEqual(s.Lines(), want) {
		t.Errorf("Lines = %+v", s.Lines())
	}
	if s.Keys() != [3]string{"<", "SELECT", ">"} {
		t.Errorf("Keys = %v", s.Keys())
	}

	s.Clear()
	if s.Title() != "" || len(s.Lines()) != 0 || s.Keys() != [3]string{} {
		t.Error("Clear should blank everything")
	}
}

func TestScreen_StatusLines(t *testing.T) {
	s := New()
	s.AddStatus("Connecting...")
	s.AddStatus("WiFi Failed")
	if !reflect.DeepEqual(s.Status(), []string{"Connecting...", "WiFi Failed"}) {
		t.Errorf("Status = %v", s.Status())
	}
	s.SetStatus("CW 15.00")
	if !reflect.DeepEqual(s.Status(), []string{"CW 15.00"}) {
		t.Errorf("Status after SetStatus = %v", s.Status())
	}
}

func TestScreen_VersionBumpsOnChange(t *testing.T) {
	s := New()
	v := s.Version()
	s.SetTitle("x")
	if s.Version() == v {
		t.Error("Version should change after SetTitle")
	}
	v = s.Version()
	_ = s.Lines()
	if s.Version() != v {
		t.Error("reading should not change Version")
	}
}
