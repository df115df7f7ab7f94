package storage

import (
	"testing"

	"github.com/lehigh-university-libraries/image-analyzer/internal/prompt"
	"github.com/lehigh-university-libraries/image-analyzer/internal/selection"
)

func TestCreateGetDelete(t *testing.T) {
	store := New()
	a := store.Create()
	b := store.Create()

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("Expected distinct ids, got %q and %q", a.ID, b.ID)
	}

	got, ok := store.Get(a.ID)
	if !ok || got != a {
		t.Errorf("Expected to find session %s", a.ID)
	}
	if all := store.GetAll(); len(all) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(all))
	}

	store.Delete(a.ID)
	if _, ok := store.Get(a.ID); ok {
		t.Error("Expected session to be deleted")
	}
}

func TestDoSharesState(t *testing.T) {
	calls := 0
	session := New().Create()

	session.Do(func(s *selection.State) {
		s.Subscribe(func(selection.Snapshot) { calls++ })
	})
	session.Do(func(s *selection.State) {
		s.SetField(prompt.Description, true)
	})
	if calls != 1 {
		t.Errorf("Expected 1 observer call, got %d", calls)
	}
}

func TestAnalysisSlot(t *testing.T) {
	session := New().Create()

	if !session.TryBeginAnalysis() {
		t.Fatal("Expected first attempt to claim the slot")
	}
	if session.TryBeginAnalysis() {
		t.Error("Expected second attempt to be rejected while the first runs")
	}
	session.EndAnalysis()
	if !session.TryBeginAnalysis() {
		t.Error("Expected slot to be free again")
	}
	session.EndAnalysis()
}
