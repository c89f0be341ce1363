package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

const AppName = "headlines"

// LogoLines is the block-letter wordmark.
var LogoLines = []string{
	"█ █ █▀▀ ▄▀▄ █▀▄ █   █ █▄ █ █▀▀ █▀▀",
	"█▀█ █▀▀ █▀█ █ █ █   █ █ ▀█ █▀▀ ▀▀█",
	"▀ ▀ ▀▀▀ ▀ ▀ ▀▀  ▀▀▀ ▀ ▀  ▀ ▀▀▀ ▀▀▀",
}

const CompactLogo = `headlines ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#F2C14E"),
	lipgloss.Color("#F78154"),
	lipgloss.Color("#4D9078"),
}

// Newsprint palette: ink, paper and a highlighter yellow.
var (
	PrimaryColor   = lipgloss.Color("#F78154") // Masthead orange
	SecondaryColor = lipgloss.Color("#4D9078") // Section green
	AccentColor    = lipgloss.Color("#B4436C") // Byline rose

	SurfaceColor = lipgloss.Color("#22223B")
	TextColor    = lipgloss.Color("#F2E9E4")
	MutedColor   = lipgloss.Color("#9A8C98")

	UnreadColor  = lipgloss.Color("#F2C14E")
	ReadColor    = lipgloss.Color("#6B6B7B")
	ErrorColor   = lipgloss.Color("#E63946")
	SuccessColor = lipgloss.Color("#4D9078")
)

var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SurfaceColor).
			Bold(true).
			Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	BucketStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Padding(0, 1)

	UnreadItemStyle = lipgloss.NewStyle().
			Foreground(UnreadColor).
			Bold(true)

	ReadItemStyle = lipgloss.NewStyle().
			Foreground(ReadColor)

	SourceStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	TimeStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Faint(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
				Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
			Foreground(UnreadColor)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)
)

// ContentWrapper returns a style that pins content to width x height.
func ContentWrapper(width, height int) lipgloss.Style {
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height)
}

func GetWelcomeMessage() string {
	return GetCompactBanner("Type to search the news • ctrl+t to change the order")
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// Banner renders the boxed wordmark printed by the version command.
func Banner(version string) string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)
	lines[len(LogoLines)] = ""

	tagline := "News from the command line"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline = fmt.Sprintf("%s %s", tagline, version)
	}
	lines = append(lines, tagline)

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	box := borderStyle.Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))
	separator := lipgloss.NewStyle().
		Foreground(AccentColor).
		Render("▪ ▫ ▪ ▫ ▪")

	center := lipgloss.NewStyle().Width(60).Align(lipgloss.Center)
	return lipgloss.JoinVertical(lipgloss.Left,
		center.Render(box),
		center.MarginBottom(1).Render(separator),
	)
}

func ShowBanner(version string) {
	fmt.Println(Banner(version))
}
