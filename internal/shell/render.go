package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/maloquacious/contacts/internal/store"
)

const cardWidth = 58

// Renderer formats contacts and status lines for a particular writer.
// Colors are dropped automatically when the writer is not a terminal.
type Renderer struct {
	title   lipgloss.Style
	label   lipgloss.Style
	card    lipgloss.Style
	box     lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:   r.NewStyle().Bold(true),
		card:    r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(cardWidth),
		box:     r.NewStyle().Border(lipgloss.DoubleBorder()).Padding(0, 2).Width(cardWidth),
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")),
		muted:   r.NewStyle().Faint(true),
	}
}

// Card renders one contact as a bordered block.
func (r *Renderer) Card(c store.Contact) string {
	lines := []string{
		r.label.Render("ID:") + " " + strconv.Itoa(c.ID),
		r.label.Render("Name:") + " " + c.Name,
		r.label.Render("Phone:") + " " + c.PhoneNumber,
		r.label.Render("Email:") + " " + c.Email,
		r.label.Render("Address:") + " " + c.Address,
	}
	return r.card.Render(strings.Join(lines, "\n"))
}

// Cards renders every contact, one card after another.
func (r *Renderer) Cards(cs []store.Contact) string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, r.Card(c))
	}
	return strings.Join(out, "\n")
}

// Table renders contacts as a compact grid.
func (r *Renderer) Table(cs []store.Contact) string {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{strconv.Itoa(c.ID), c.Name, c.PhoneNumber, c.Email, c.Address})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "PHONE", "EMAIL", "ADDRESS").
		Rows(rows...).
		String()
}

func (r *Renderer) Title(s string) string {
	return r.title.Render(s)
}

func (r *Renderer) Box(s string) string {
	return r.box.Render(s)
}

func (r *Renderer) Success(format string, args ...any) string {
	return r.success.Render(fmt.Sprintf(format, args...))
}

func (r *Renderer) Failure(format string, args ...any) string {
	return r.failure.Render(fmt.Sprintf(format, args...))
}

func (r *Renderer) Muted(s string) string {
	return r.muted.Render(s)
}
