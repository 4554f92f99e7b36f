package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Command
		wantErr string
	}{
		{name: "plain", input: "todos", want: Command{Name: "todos"}},
		{name: "argument kept whole", input: "search  buy milk ", want: Command{Name: "search", Arg: "buy milk"}},
		{name: "alias", input: "q", want: Command{Name: "quit"}},
		{name: "case folded", input: "TAG Work", want: Command{Name: "tag", Arg: "Work"}},
		{name: "optional argument", input: "notes", want: Command{Name: "notes"}},
		{name: "empty", input: "   ", wantErr: "empty command"},
		{name: "unknown", input: "launch", wantErr: `unknown command "launch"`},
		{name: "missing argument", input: "tag", wantErr: "usage: tag <name>"},
		{name: "unexpected argument", input: "record now", wantErr: "record takes no argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaletteEmitsCommand(t *testing.T) {
	m := New(80, 20)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("tag")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "usage: tag <name>")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" work")})
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: "tag", Arg: "work"}, cmd())
	assert.Empty(t, m.input.Value())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, CloseMsg{}, cmd())
}

func TestUsageCoversEveryCommand(t *testing.T) {
	assert.Len(t, Usage(), len(Names()))
	assert.Contains(t, Usage(), "search <query>")
}
