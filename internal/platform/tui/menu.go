package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/arena-pong/internal/registry"
)

// PlayMode selects how a match is staffed.
type PlayMode int

const (
	PlayModeVsCPU  PlayMode = iota // Every other seat is a bot
	PlayModeOnline                 // Queue for human opponents
)

func (m PlayMode) String() string {
	if m == PlayModeOnline {
		return "Online"
	}
	return "Vs CPU"
}

// MenuItem represents a selectable map in the menu.
type MenuItem struct {
	MapID       string
	Description string
	Players     int
}

// MenuModel is the Bubble Tea model for the map picker menu.
type MenuModel struct {
	items          []MenuItem
	modes          []PlayMode
	cursor         int
	modeCursor     int
	width          int
	height         int
	keyMapper      *KeyMapper
	quitting       bool
	selected       *MenuItem // Set when user selects a map
	openScoreboard bool      // True if user pressed Tab for scoreboard
}

// NewMenuModel creates a new menu model offering the given modes.
func NewMenuModel(width, height int, modes ...PlayMode) MenuModel {
	if len(modes) == 0 {
		modes = []PlayMode{PlayModeVsCPU}
	}

	maps := registry.List()
	items := make([]MenuItem, 0, len(maps))
	for _, info := range maps {
		items = append(items, MenuItem{
			MapID:       info.ID,
			Description: info.Description,
			Players:     info.Players,
		})
	}

	return MenuModel{
		items:     items,
		modes:     modes,
		width:     width,
		height:    height,
		keyMapper: NewKeyMapper(),
	}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.modeCursor = (m.modeCursor + len(m.modes) - 1) % len(m.modes)
		return m, nil
	case "right", "l":
		m.modeCursor = (m.modeCursor + 1) % len(m.modes)
		return m, nil
	}

	switch m.keyMapper.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case MenuActionSelect:
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
		}

	case MenuActionScoreboard:
		m.openScoreboard = true
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("  A R E N A   P O N G  ", m.width))
	b.WriteString("\n\n")

	if len(m.modes) > 1 {
		b.WriteString(centerText(fmt.Sprintf("Mode: < %s >", m.Mode()), m.width))
		b.WriteString("\n\n")
	}

	b.WriteString(centerText("Select a map", m.width))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-10s %d players", cursor, item.MapID, item.Players)
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	if len(m.items) > 0 {
		b.WriteString("\n")
		b.WriteString(centerText(m.items[m.cursor].Description, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	controls := "Up/Down: Navigate  |  Enter: Select  |  Tab: Results  |  Q: Quit"
	if len(m.modes) > 1 {
		controls = "Left/Right: Mode  |  " + controls
	}
	b.WriteString(centerText(controls, m.width))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the selected menu item, or nil if none selected.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// Mode returns the highlighted play mode.
func (m MenuModel) Mode() PlayMode {
	return m.modes[m.modeCursor]
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// WantsScoreboard returns true if user requested the results screen.
func (m MenuModel) WantsScoreboard() bool {
	return m.openScoreboard
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
