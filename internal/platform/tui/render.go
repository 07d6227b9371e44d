package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/arena-pong/internal/core"
	"github.com/vovakirdan/arena-pong/internal/world"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:       lipgloss.NewStyle(),
	core.ColorRed:           lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:        lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorBlue:          lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorMagenta:       lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorCyan:          lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorWhite:         lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorBrightRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorBrightGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorBrightYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorBrightBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	core.ColorBrightMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorBrightCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorBrightWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorOrange:        lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorGray:          lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			cell := s.GetCell(x, y)
			startColor := cell.Color

			var run strings.Builder
			for x < s.Width() {
				cell = s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// Characters used to draw the arena.
const (
	runeWall   = '#'
	runeGoal   = '-'
	runeSealed = '='
	runePaddle = '█'
	runeBall   = '●'
	hudRows    = 2
)

type paddleView struct {
	pos   core.Position
	alive bool
}

// ArenaView draws a top-down view of a match onto a Screen.
// It implements client.Renderer; the client copies snapshot positions in
// and Draw paints them together with the static map geometry.
type ArenaView struct {
	m           world.Map
	paddleWidth float64
	balls       []core.BallState
	paddles     []paddleView
	camera      float64

	// TickRate converts countdown ticks to seconds in the HUD.
	TickRate int
}

// NewArenaView creates a view for map m. paddleWidth is the paddle length
// in world units.
func NewArenaView(m world.Map, paddleWidth float64) *ArenaView {
	return &ArenaView{
		m:           m,
		paddleWidth: paddleWidth,
		paddles:     make([]paddleView, len(m.Goals)),
		camera:      1,
		TickRate:    60,
	}
}

// SetBalls implements client.Renderer.
func (v *ArenaView) SetBalls(balls []core.BallState) {
	v.balls = append(v.balls[:0], balls...)
}

// SetPaddle implements client.Renderer.
func (v *ArenaView) SetPaddle(slot int, pos core.Position, alive bool) {
	if slot < 0 || slot >= len(v.paddles) {
		return
	}
	v.paddles[slot] = paddleView{pos: pos, alive: alive}
}

// SetCamera implements client.Renderer.
func (v *ArenaView) SetCamera(progress float64) {
	v.camera = core.ClampF(progress, 0, 1)
}

// projection maps world XZ onto screen cells. Terminal cells are about
// twice as tall as they are wide, so X is stretched by two.
type projection struct {
	cx, cy float64
	scale  float64
}

func (v *ArenaView) projection(s *core.Screen) projection {
	w, h := v.m.Dimensions.Width, v.m.Dimensions.Height
	availW := float64(s.Width() - 2)
	availH := float64(s.Height() - hudRows - 2)
	scale := math.Min(availW/(2*w), availH/h)
	if scale <= 0 {
		scale = 0
	}
	// The fly-in zooms from a quarter size to the fitted size.
	zoom := 0.25 + 0.75*v.camera
	return projection{
		cx:    float64(s.Width()) / 2,
		cy:    float64(hudRows) + float64(s.Height()-hudRows)/2,
		scale: scale * zoom,
	}
}

func (p projection) cell(x, z float64) (int, int) {
	return int(math.Round(p.cx + 2*x*p.scale)), int(math.Round(p.cy + z*p.scale))
}

func (p projection) line(s *core.Screen, a, b core.Vec3, r rune, c core.Color) {
	x0, y0 := p.cell(a.X, a.Z)
	x1, y1 := p.cell(b.X, b.Z)
	s.DrawLine(x0, y0, x1, y1, r, c)
}

// segment returns the endpoints of a body of the given length lying across
// normal n at center.
func segment(center, n core.Vec3, length float64) (core.Vec3, core.Vec3) {
	tangent := core.V3(-n.Z, 0, n.X).Normalize().Scale(length / 2)
	return center.Sub(tangent), center.Add(tangent)
}

// Draw renders the map, bodies and a HUD line for state.
func (v *ArenaView) Draw(s *core.Screen, state core.GameState, self string) {
	s.Clear()
	p := v.projection(s)

	// Boundary
	hw, hh := v.m.Dimensions.Width/2, v.m.Dimensions.Height/2
	corners := []core.Vec3{
		core.V3(-hw, 0, -hh), core.V3(hw, 0, -hh),
		core.V3(hw, 0, hh), core.V3(-hw, 0, hh),
	}
	for i := range corners {
		p.line(s, corners[i], corners[(i+1)%len(corners)], runeWall, core.ColorGray)
	}

	for _, w := range v.m.Walls {
		a, b := segment(w.Location, w.SurfaceNormal, w.Dimensions.X)
		p.line(s, a, b, runeWall, core.ColorGray)
	}

	for slot, g := range v.m.Goals {
		alive := slot >= len(state.Players) || state.Players[slot].IsAlive
		r, c := runeGoal, core.PlayerColor(slot)
		if !alive {
			r, c = runeSealed, core.ColorGray
		}
		p.line(s, g.Post1, g.Post2, r, c)
	}

	for slot, pv := range v.paddles {
		if !pv.alive || slot >= len(v.m.Goals) {
			continue
		}
		center := core.V3(pv.pos.X, 0, pv.pos.Z)
		a, b := segment(center, v.m.Goals[slot].SurfaceNormal, v.paddleWidth)
		p.line(s, a, b, runePaddle, core.PlayerColor(slot))
	}

	for _, ball := range v.balls {
		x, y := p.cell(ball.X, ball.Z)
		s.SetColored(x, y, runeBall, core.ColorBrightWhite)
	}

	v.drawHUD(s, state, self)
	v.drawBanner(s, state, self)
}

// drawBanner boxes a large notice over the middle of the arena while the
// match is paused or over.
func (v *ArenaView) drawBanner(s *core.Screen, state core.GameState, self string) {
	var text string
	c := core.ColorBrightYellow
	switch {
	case state.Status == core.StatusFinished:
		text = "MATCH OVER"
		if w, ok := state.Winner(); ok {
			text = strings.ToUpper(w.Alias) + " WINS"
			if w.ID == self {
				text, c = "VICTORY!", core.ColorBrightGreen
			}
		}
	case state.Status == core.StatusInProgress && state.Paused:
		text = "PAUSED"
	default:
		return
	}

	w := len([]rune(text)) + 6
	if w > s.Width() || s.Height() < hudRows+3 {
		return
	}
	top := hudRows + (s.Height()-hudRows-3)/2
	box := core.NewRect((s.Width()-w)/2, top, w, 3)
	s.DrawRect(box, ' ')
	s.DrawBox(box, c)
	s.DrawTextColored(box.X+3, box.Y+1, text, c)
}

func (v *ArenaView) drawHUD(s *core.Screen, state core.GameState, self string) {
	var parts []string
	for _, pl := range state.Players {
		name := pl.Alias
		if name == "" {
			name = pl.ID
		}
		if pl.ID == self {
			name = "*" + name
		}
		hearts := strings.Repeat("♥", max(pl.Lives, 0))
		if !pl.IsAlive {
			hearts = "out"
		}
		parts = append(parts, fmt.Sprintf("%s %s", name, hearts))
	}
	s.DrawTextCentered(0, strings.Join(parts, "  |  "), core.ColorBrightWhite)
	s.DrawTextCentered(1, statusLine(state, self, v.TickRate), core.ColorYellow)
}

func statusLine(state core.GameState, self string, tickRate int) string {
	switch state.Status {
	case core.StatusWaiting:
		ready := 0
		for _, pl := range state.Players {
			if pl.IsReady {
				ready++
			}
		}
		return fmt.Sprintf("Waiting: %d/%d ready  (space: ready)", ready, len(state.Players))
	case core.StatusInProgress:
		if state.Paused {
			return "PAUSED  (p: resume)"
		}
		if state.Countdown > 0 {
			return fmt.Sprintf("Get ready... %d", state.Countdown/max(tickRate, 1)+1)
		}
		return ""
	case core.StatusFinished:
		if w, ok := state.Winner(); ok {
			if w.ID == self {
				return "VICTORY!  (esc: back)"
			}
			return fmt.Sprintf("%s wins  (esc: back)", w.Alias)
		}
		return "Match over  (esc: back)"
	}
	return "Connecting..."
}
