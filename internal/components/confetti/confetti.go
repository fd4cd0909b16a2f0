// Package confetti draws a short celebration when an order reaches its final stage.
package confetti

import (
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/robertguss/factorydesk/internal/theme"
)

const (
	frameInterval = 33 * time.Millisecond
	burstFrames   = 60
	burstSize     = 40
	gravity       = 0.05
)

var pieces = []string{"✂", "•", "*", "+", "~"}

// TickMsg advances the animation by one frame
type TickMsg time.Time

type particle struct {
	x, y     float64
	vx, vy   float64
	char     string
	color    lipgloss.Color
	lifetime int
}

// Model is the celebration overlay
type Model struct {
	width     int
	height    int
	particles []particle
	frames    int
	rng       *rand.Rand
}

// New creates a confetti model seeded from the clock
func New() Model {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed creates a confetti model with a fixed seed
func NewWithSeed(seed int64) Model {
	return Model{rng: rand.New(rand.NewSource(seed))}
}

// Start launches a burst across the given area
func (m *Model) Start(width, height int) tea.Cmd {
	if width <= 0 || height <= 0 {
		return nil
	}
	m.width = width
	m.height = height
	m.frames = burstFrames
	m.particles = m.spawn(burstSize)
	return tick()
}

// Stop clears the overlay
func (m *Model) Stop() {
	m.frames = 0
	m.particles = nil
}

// IsActive reports whether a burst is in flight
func (m Model) IsActive() bool {
	return m.frames > 0
}

// SetSize updates the dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) spawn(count int) []particle {
	t := theme.Current
	colors := []lipgloss.Color{t.Success, t.Primary, t.Secondary, t.Accent, t.Warning}

	out := make([]particle, count)
	for i := range out {
		out[i] = particle{
			x:        float64(m.rng.Intn(m.width)),
			y:        float64(m.rng.Intn(3)),
			vx:       (m.rng.Float64() - 0.5) * 2,
			vy:       m.rng.Float64()*0.5 + 0.3,
			char:     pieces[m.rng.Intn(len(pieces))],
			color:    colors[m.rng.Intn(len(colors))],
			lifetime: burstFrames + m.rng.Intn(30),
		}
	}
	return out
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update moves particles on each tick
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); !ok || !m.IsActive() {
		return m, nil
	}

	m.frames--
	if m.frames <= 0 {
		m.Stop()
		return m, nil
	}

	alive := make([]particle, 0, len(m.particles))
	for _, p := range m.particles {
		p.x += p.vx
		p.y += p.vy
		p.vy += gravity
		p.lifetime--
		if p.y < float64(m.height) && p.lifetime > 0 {
			alive = append(alive, p)
		}
	}
	m.particles = alive

	return m, tick()
}

// Overlay draws the particles over content, replacing the cells they occupy
func (m Model) Overlay(content string) string {
	if !m.IsActive() || len(m.particles) == 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	hits := make(map[int]map[int]particle)
	for _, p := range m.particles {
		x, y := int(p.x), int(p.y)
		if x < 0 || y < 0 || y >= len(lines) || x >= m.width {
			continue
		}
		if hits[y] == nil {
			hits[y] = make(map[int]particle)
		}
		hits[y][x] = p
	}

	for y, row := range hits {
		plain := []rune(ansi.Strip(lines[y]))
		for len(plain) < m.width {
			plain = append(plain, ' ')
		}
		var b strings.Builder
		for x, r := range plain {
			if p, ok := row[x]; ok {
				b.WriteString(lipgloss.NewStyle().Foreground(p.color).Render(p.char))
				continue
			}
			b.WriteRune(r)
		}
		lines[y] = b.String()
	}

	return strings.Join(lines, "\n")
}
