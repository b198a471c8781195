package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type formField struct {
	label       string
	value       string
	secret      bool
	placeholder string
}

// form is a vertical list of text fields with one focused at a time.
type form struct {
	fields []formField
	focus  int
}

func newForm(fields ...formField) form {
	return form{fields: fields}
}

func (f form) value(i int) string {
	return f.fields[i].value
}

// trimmed returns field i without surrounding whitespace. Secrets are
// returned as typed.
func (f form) trimmed(i int) string {
	if f.fields[i].secret {
		return f.fields[i].value
	}
	return strings.TrimSpace(f.fields[i].value)
}

func (f *form) set(i int, v string) {
	f.fields[i].value = v
}

// update applies a key to the form. submit is true when the user asked to
// submit: ctrl+s anywhere, or enter on the last field.
func (f form) update(msg tea.KeyMsg) (next form, submit bool) {
	n := len(f.fields)
	switch msg.Type {
	case tea.KeyCtrlS:
		return f, true
	case tea.KeyTab, tea.KeyDown:
		f.focus = (f.focus + 1) % n
	case tea.KeyShiftTab, tea.KeyUp:
		f.focus = (f.focus - 1 + n) % n
	case tea.KeyEnter:
		if f.focus == n-1 {
			return f, true
		}
		f.focus++
	case tea.KeyBackspace:
		fld := &f.fields[f.focus]
		fld.value = dropLastRune(fld.value)
	case tea.KeyCtrlU:
		f.fields[f.focus].value = ""
	case tea.KeyRunes, tea.KeySpace:
		fld := &f.fields[f.focus]
		runes := msg.Runes
		if msg.Type == tea.KeySpace {
			runes = []rune{' '}
		}
		fld.value = appendRunes(fld.value, runes)
	}
	return f, false
}

func (f form) View(active bool) string {
	var b strings.Builder
	width := 0
	for _, fld := range f.fields {
		width = max(width, len(fld.label))
	}
	for i, fld := range f.fields {
		cursor := " "
		style := metaStyle
		focused := active && i == f.focus
		if focused {
			cursor = inputPromptStyle.Render(">")
			style = selectedStyle
		}

		value := fld.value
		if fld.secret {
			value = mask(value)
		}
		switch {
		case value == "" && !focused && fld.placeholder != "":
			value = inputPlaceholderStyle.Render(fld.placeholder)
		case focused:
			value = normalStyle.Render(value) + accentStyle.Render("█")
		default:
			value = normalStyle.Render(value)
		}
		fmt.Fprintf(&b, "%s %s  %s\n", cursor, style.Render(fmt.Sprintf("%-*s", width, fld.label)), value)
	}
	return b.String()
}
