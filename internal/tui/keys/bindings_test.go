package keys

import (
	"slices"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestViewBindingsShadowGlobal(t *testing.T) {
	r := NewRegistry()
	var calls []string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "q:quit", Visible: true,
		Handler: func() { calls = append(calls, "quit") }})
	r.AddView("hangout", &Action{Key: tcell.KeyRune, Rune: 'q', Description: "q:back", Visible: true,
		Handler: func() { calls = append(calls, "back") }})
	r.AddView("hangout", &Action{Key: tcell.KeyEnter, Description: "enter", Handler: func() { calls = append(calls, "enter") }})

	if !r.HandleEvent("hangouts", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatal("global binding not handled")
	}
	if !r.HandleEvent("hangout", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatal("view binding not handled")
	}
	if !r.HandleEvent("hangout", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) {
		t.Fatal("special key not handled")
	}
	if r.HandleEvent("hangout", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Error("unbound key reported handled")
	}

	if want := []string{"quit", "back", "enter"}; !slices.Equal(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestHintsOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "q:quit", Visible: true})
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'x', Description: "hidden"})
	r.AddView("hangouts", &Action{Key: tcell.KeyRune, Rune: 'i', Description: "i:compose", Visible: true})
	r.AddView("hangouts", &Action{Key: tcell.KeyRune, Rune: '/', Description: "/:search", Visible: true})

	got := r.Hints("hangouts")
	want := []string{"i:compose", "/:search", "q:quit"}
	if !slices.Equal(got, want) {
		t.Errorf("Hints() = %v, want %v", got, want)
	}
}
