package history

import (
	"fmt"
	"reflect"
	"testing"
)

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func TestLog_AddBelowCapacity(t *testing.T) {
	l := New(5)
	l.Add("a")
	l.Add("b")

	if got := texts(l.Entries()); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("entries = %v", got)
	}
	if l.Len() != 2 || l.Cap() != 5 {
		t.Errorf("Len/Cap = %d/%d, want 2/5", l.Len(), l.Cap())
	}
}

func TestLog_EvictsOldestFirst(t *testing.T) {
	l := New(DefaultCapacity)
	for i := 1; i <= DefaultCapacity+1; i++ {
		l.Add(fmt.Sprintf("cmd %d", i))
	}

	want := []string{"cmd 2", "cmd 3", "cmd 4", "cmd 5", "cmd 6"}
	if got := texts(l.Entries()); !reflect.DeepEqual(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
	if l.Len() != DefaultCapacity {
		t.Errorf("Len = %d, want %d", l.Len(), DefaultCapacity)
	}
}

func TestLog_RetainsLastCapacityAfterManyAdds(t *testing.T) {
	l := New(3)
	for i := 0; i < 20; i++ {
		l.Add(fmt.Sprint(i))
	}
	if got := texts(l.Entries()); !reflect.DeepEqual(got, []string{"17", "18", "19"}) {
		t.Errorf("entries = %v", got)
	}
}

func TestLog_EntriesIsIdempotent(t *testing.T) {
	l := New(2)
	l.Add("x")
	first := l.Entries()
	first[0].Text = "mutated"

	if got := texts(l.Entries()); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("entries after caller mutation = %v, want [x]", got)
	}
}

func TestLog_Empty(t *testing.T) {
	l := New(0)
	if l.Cap() != DefaultCapacity {
		t.Errorf("Cap = %d, want default %d", l.Cap(), DefaultCapacity)
	}
	if len(l.Entries()) != 0 {
		t.Error("new log should be empty")
	}
}
