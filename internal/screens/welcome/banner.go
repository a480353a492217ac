package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/calctutor/internal/ui/theme"
)

const bannerArt = `┌─┐┌─┐┬  ┌─┐┌┬┐┬ ┬┌┬┐┌─┐┬─┐
│  ├─┤│  │   │ │ │ │ │ │├┬┘
└─┘┴ ┴┴─┘└─┘ ┴ └─┘ ┴ └─┘┴└─`

const bannerCompact = "c a l c t u t o r"

// RenderBanner returns the banner styled in the primary color. Uses a
// compact fallback for terminals narrower than the art.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < lipgloss.Width(bannerArt)+4 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
