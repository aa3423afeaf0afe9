package usuarios

import (
	"fmt"
	"io"
	"strings"
)

const (
	ScreenTitle    = "UniConnect"
	ScreenSubtitle = "Usuarios"
	EmptyMessage   = "No hay usuarios registrados."
)

// Card is the rendered form of one user.
type Card struct {
	Key    string
	Name   string
	Email  string
	Career string
}

// ShowCareer reports whether the career line is rendered.
func (c Card) ShowCareer() bool {
	return c.Career != ""
}

// Screen is the render model derived from a LoadState. At most one of
// Loading, Error and the list section is populated.
type Screen struct {
	Title    string
	Subtitle string
	Phase    Phase
	Loading  bool
	Error    string
	ShowList bool
	Empty    string
	Cards    []Card
}

// BuildScreen maps a controller state to its render model.
func BuildScreen(state LoadState) Screen {
	screen := Screen{Title: ScreenTitle, Subtitle: ScreenSubtitle, Phase: state.Phase}
	switch state.Phase {
	case PhaseLoading:
		screen.Loading = true
	case PhaseFailure:
		screen.Error = "Error: " + state.Message
	case PhaseSuccess:
		screen.ShowList = true
		if len(state.Records) == 0 {
			screen.Empty = EmptyMessage
			break
		}
		screen.Cards = make([]Card, 0, len(state.Records))
		for _, u := range state.Records {
			card := Card{
				Key:   u.ID,
				Name:  fmt.Sprintf("%s %s", u.FirstName, u.LastName),
				Email: u.Email,
			}
			if u.HasCareer() {
				card.Career = *u.Career
			}
			screen.Cards = append(screen.Cards, card)
		}
	}
	return screen
}

// RenderText writes the screen as plain text for terminals.
func RenderText(w io.Writer, screen Screen) error {
	var b strings.Builder
	b.WriteString(screen.Title + "\n")
	b.WriteString(screen.Subtitle + "\n\n")
	switch {
	case screen.Loading:
		b.WriteString("Cargando...\n")
	case screen.Error != "":
		b.WriteString(screen.Error + "\n")
	case screen.ShowList:
		for _, card := range screen.Cards {
			b.WriteString(card.Name + "\n")
			b.WriteString("  " + card.Email + "\n")
			if card.ShowCareer() {
				b.WriteString("  " + card.Career + "\n")
			}
		}
		if screen.Empty != "" {
			b.WriteString(screen.Empty + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
