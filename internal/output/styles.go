package output

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorAccent  = lipgloss.Color("#F25D94")
	ColorSuccess = lipgloss.Color("#04B575")
	ColorDanger  = lipgloss.Color("#FF4672")
	ColorMuted   = lipgloss.Color("#626262")
	ColorBorder  = lipgloss.Color("#383838")
)

// Base styles
var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Underline(true)
	SectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	PositiveStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	NegativeStyle = lipgloss.NewStyle().Foreground(ColorDanger)
	StrongStyle   = lipgloss.NewStyle().Bold(true)
	RuleStyle     = lipgloss.NewStyle().Foreground(ColorBorder)
)

// styler applies the base styles, or nothing in plain mode.
type styler struct {
	plain bool
}

func (s styler) render(st lipgloss.Style, text string) string {
	if s.plain {
		return text
	}
	return st.Render(text)
}

func (s styler) title(text string) string   { return s.render(TitleStyle, text) }
func (s styler) section(text string) string { return s.render(SectionStyle, text) }
func (s styler) label(text string) string   { return s.render(LabelStyle, text) }
func (s styler) strong(text string) string  { return s.render(StrongStyle, text) }
func (s styler) rule(text string) string    { return s.render(RuleStyle, text) }

// saving colors money the taxpayer keeps green and money they pay red.
func (s styler) saving(text string, positive bool) string {
	if positive {
		return s.render(PositiveStyle, text)
	}
	return s.render(NegativeStyle, text)
}
