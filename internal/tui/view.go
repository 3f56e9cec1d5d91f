package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/reels/internal/aspect"
	"github.com/pders01/reels/internal/playback"
	"github.com/pders01/reels/internal/storage"
)

func (a *App) View() string {
	var content string
	bodyHeight := a.height - 3

	switch a.view {
	case ViewFeed:
		if len(a.reels) == 0 {
			content = renderCentered(a.width, bodyHeight, GetWelcomeMessage(a.config.Keys.Bindings.Add))
		} else {
			content = renderCentered(a.width, bodyHeight, a.renderFeed(bodyHeight))
		}
	case ViewSearch:
		content = a.renderSearch(bodyHeight)
	case ViewAddSource:
		content = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Center,
			TitleStyle.Render("› add source"),
			"",
			renderInputFrame(a.sourceInput.View(), a.sourceInput.Focused(), a.sourceInput.Width),
			"",
			renderHelp("RSS, Atom, YouTube channel or subreddit URL"),
		))
	case ViewHelp:
		content = a.helpView.View()
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 0)))
	return lipgloss.JoinVertical(lipgloss.Left, content, separator, a.statusBar())
}

// renderFeed draws the reel under the cursor with its neighbours peeking
// in above and below.
func (a *App) renderFeed(height int) string {
	r := a.currentReel()
	width := a.cardWidth()

	rows := []string{}
	if a.cursor > 0 {
		rows = append(rows, renderMuted("↑ "+truncateEnd(reelLabel(a.reels[a.cursor-1]), width-2)))
	} else {
		rows = append(rows, "")
	}

	ratio := a.coord.AspectRatio(r.ID)
	boxW, boxH := boxSize(ratio, width, height-9)
	rows = append(rows, a.renderPlayer(r, ratio, boxW, boxH))
	rows = append(rows, a.renderMeta(r, width)...)

	if a.cursor < len(a.reels)-1 {
		rows = append(rows, renderMuted("↓ "+truncateEnd(reelLabel(a.reels[a.cursor+1]), width-2)))
	}
	return lipgloss.JoinVertical(lipgloss.Center, rows...)
}

// boxSize fits a box of the given ratio into maxW columns and maxH rows.
// Terminal cells are about twice as tall as wide.
func boxSize(ratio aspect.Ratio, maxW, maxH int) (w, h int) {
	if maxW < 8 {
		maxW = 8
	}
	if maxH < 3 {
		maxH = 3
	}
	w = maxW
	h = int(float64(w) / ratio.Value / 2)
	if h > maxH {
		h = maxH
		w = int(float64(h) * ratio.Value * 2)
	}
	return max(w, 8), max(h, 3)
}

func (a *App) cardWidth() int {
	w := a.config.UI.Card.Width
	if a.width > 0 && w > a.width-4 {
		w = a.width - 4
	}
	return max(w, 20)
}

func (a *App) renderPlayer(r *storage.Reel, ratio aspect.Ratio, w, h int) string {
	var info playback.SlotInfo
	for _, s := range a.coord.Slots() {
		if s.Index == a.cursor {
			info = s
		}
	}

	glyph := a.stateGlyph(info, a.coord.IsBuffering(r.ID))
	inner := lipgloss.JoinVertical(lipgloss.Center,
		glyph,
		"",
		renderMuted(ratio.Name),
	)

	border := MutedColor
	if info.State.Active() {
		border = PrimaryColor
	}
	if info.Err != nil {
		border = ErrorColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(w - 2).
		Height(h - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(inner)
}

func (a *App) stateGlyph(info playback.SlotInfo, buffering bool) string {
	switch {
	case info.Err != nil:
		return StatusErrorStyle.Render("✗ " + truncateEnd(info.Err.Error(), 30))
	case info.Held:
		return HeaderStyle.Render("❚❚ held")
	case info.State == playback.Buffering || (buffering && info.State.Active()):
		return a.spinner.View() + " buffering"
	case info.State == playback.Loading:
		return a.spinner.View() + " loading"
	case info.State == playback.Playing:
		return HeaderStyle.Render("▶")
	case info.State == playback.Paused:
		return renderMuted("❚❚")
	case info.State == playback.Ended:
		return renderMuted("↺")
	}
	return renderMuted("■")
}

func (a *App) renderMeta(r *storage.Reel, width int) []string {
	pos, total := a.playhead()
	bar := a.progress.ViewAs(0)
	if total > 0 {
		bar = a.progress.ViewAs(float64(pos) / float64(total))
	}

	heart := renderMuted("♡")
	if r.Liked {
		heart = LikedStyle.Render("♥")
	}
	sound := "🔊"
	if a.coord.Muted() {
		sound = "🔇"
	}
	counter := fmt.Sprintf("%d/%d", a.cursor+1, len(a.reels))
	controls := lipgloss.JoinHorizontal(lipgloss.Top,
		heart, "  ", sound, "  ",
		TimeStyle.Render(formatPlayhead(pos, total)), "  ",
		renderMuted(counter),
	)

	caption := singleLine(r.Caption)
	if caption == "" {
		caption = r.Title
	}
	caption = truncateEnd(caption, a.config.UI.Card.MaxCaptionLength)

	rows := []string{bar, controls}
	if r.Author != "" {
		rows = append(rows, AuthorStyle.Render("@"+truncateEnd(r.Author, width-1)))
	}
	rows = append(rows, CaptionStyle.Width(width).Render(caption))
	return rows
}

func (a *App) playhead() (pos, total time.Duration) {
	if p, ok := a.players[a.cursor]; ok {
		return p.Position(), p.Duration()
	}
	return 0, 0
}

func reelLabel(r *storage.Reel) string {
	if r.Title != "" {
		return r.Title
	}
	if c := singleLine(r.Caption); c != "" {
		return c
	}
	return truncateMiddle(r.MediaURI, 40)
}

func (a *App) renderSearch(height int) string {
	header := renderHeader("› search", "reels, captions, authors and sources", a.width)
	frame := renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width)

	body := a.searchList.View()
	if len(a.searchList.Items()) == 0 && len([]rune(strings.TrimSpace(a.searchInput.Value()))) > 1 {
		body = renderMuted(MsgNoResults)
	}
	return ContentWrapper(a.width, height).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", frame, "", body),
	)
}

// ContentWrapper constrains content to the body area above the status bar.
func ContentWrapper(width, height int) lipgloss.Style {
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height)
}

func (a *App) statusBar() string {
	if a.err != nil {
		return StatusBarStyle.Width(a.width).Render(ErrorMessageStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}
	if a.status != "" {
		text := a.statusKind.style().Render(a.status)
		if a.busy {
			text = a.spinner.View() + " " + text
		}
		return StatusBarStyle.Width(a.width).Render(text)
	}
	if hints := a.keyHandler.GetHelpForCurrentView(); len(hints) > 0 {
		return StatusBarStyle.Width(a.width).Render(strings.Join(hints, " • "))
	}
	return StatusBarStyle.Render(a.help.View(a.keys))
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wrap := min(max(a.width-4, 20), 100)
	if a.glamourRenderer == nil || a.rendererWidth != wrap {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wrap
	}
	return a.glamourRenderer, nil
}

// renderHelpView fills the help overlay from the active key bindings.
func (a *App) renderHelpView() {
	var md strings.Builder
	md.WriteString("# " + AppName + "\n\n")
	md.WriteString("One reel plays at a time: the one filling the screen.\n\n")
	md.WriteString("| key | action |\n|---|---|\n")
	for _, group := range a.keys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			fmt.Fprintf(&md, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	md.WriteString("\n## Gestures\n\n")
	fmt.Fprintf(&md, "- Tap once to toggle sound for the whole feed.\n")
	fmt.Fprintf(&md, "- Tap twice within %s to like.\n", a.config.Playback.DoubleTapWindow)
	fmt.Fprintf(&md, "- Hold for %s to pause; release to resume.\n", a.config.Playback.LongPressThreshold)

	r, err := a.getRenderer()
	if err != nil {
		a.helpView.SetContent(md.String())
		return
	}
	out, err := r.Render(md.String())
	if err != nil {
		out = md.String()
	}
	a.helpView.SetContent(out)
	a.helpView.GotoTop()
}
