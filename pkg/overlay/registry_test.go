package overlay

import (
	"sync"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.Add("task_1", New(OwnerShape, 16, 16), "3")
	b := r.Add("task_1", Overlay{Width: 10, Height: 10}, "!")
	c := r.Add("flow_1", New(OwnerEdge, 12, 12), "")

	if a == b || b == c {
		t.Fatal("ids should be unique")
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	got := r.ForCell("task_1")
	if len(got) != 2 || got[0].ID != a || got[1].ID != b {
		t.Fatalf("ForCell(task_1) = %+v", got)
	}
	if got[1].Overlay.Overlap != DefaultOverlap {
		t.Error("Add should apply defaults")
	}

	if !r.Remove(a) {
		t.Error("Remove(a) = false")
	}
	if r.Remove(a) {
		t.Error("second Remove(a) = true")
	}

	if n := r.RemoveCell("task_1"); n != 1 {
		t.Errorf("RemoveCell(task_1) = %d, want 1", n)
	}
	if n := r.RemoveCell("task_1"); n != 0 {
		t.Errorf("second RemoveCell(task_1) = %d, want 0", n)
	}
	if cells := r.Cells(); len(cells) != 1 || cells[0] != "flow_1" {
		t.Errorf("Cells() = %v", cells)
	}
	if all := r.All(); len(all) != 1 || all[0].ID != c {
		t.Errorf("All() = %+v", all)
	}
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := r.Add("cell", New(OwnerShape, 1, 1), "")
			r.ForCell("cell")
			r.Remove(id)
		}()
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}
