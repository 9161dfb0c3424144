package internal

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const cardWidth = 30

var (
	localColor     = lipgloss.Color("#808080")
	missingColor   = lipgloss.Color("#C9B28D")
	uploadingColor = lipgloss.Color("#8DA4C9")
	uploadedColor  = lipgloss.Color("#8DBD9C")
	failedColor    = lipgloss.Color("#C98D8D")

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(cardWidth)

	nameStyle   = lipgloss.NewStyle().Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	reasonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Presenter draws attachments as terminal cards. It only reads attachments;
// removal goes back to the caller through Prune.
type Presenter struct {
	stat func(string) (os.FileInfo, error)
}

// NewPresenter creates a new Presenter
func NewPresenter() *Presenter {
	return &Presenter{stat: os.Stat}
}

// Render draws one card per attachment, side by side. File existence is
// checked on every call.
func (p *Presenter) Render(attachments []Attachment) string {
	if len(attachments) == 0 {
		return detailStyle.Render("No attachments")
	}
	cards := make([]string, 0, len(attachments))
	for _, att := range attachments {
		cards = append(cards, p.renderCard(att))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// Prune returns attachments minus those remove asks to drop. Nothing is
// removed unless removable is set; retained entries are returned unchanged.
func (p *Presenter) Prune(attachments []Attachment, removable bool, remove func(Attachment) bool) []Attachment {
	if !removable || remove == nil {
		return attachments
	}
	kept := make([]Attachment, 0, len(attachments))
	for _, att := range attachments {
		if !remove(att) {
			kept = append(kept, att)
		}
	}
	return kept
}

func (p *Presenter) renderCard(att Attachment) string {
	info, err := p.stat(att.Path)
	exists := err == nil

	name := filepath.Base(att.Path)
	if !exists {
		name += " (FILE NOT FOUND)"
	}

	lines := []string{
		IconFor(att.Mime, exists) + " " + nameStyle.Render(truncate(name, cardWidth-4)),
	}
	detail := att.Mime
	if exists {
		detail += " · " + humanize.IBytes(uint64(info.Size()))
	}
	lines = append(lines, detailStyle.Render(truncate(detail, cardWidth-2)))

	switch att.State.Kind {
	case StateUploading:
		lines = append(lines, "⠿ Uploading...")
	case StateUploaded:
		if att.State.Ref != nil {
			lines = append(lines, "✓ "+truncate(att.State.Ref.Name, cardWidth-4))
		} else {
			lines = append(lines, "✓ inline")
		}
	case StateFailed:
		lines = append(lines, reasonStyle.Render("Failed"), reasonStyle.Render(att.State.Reason))
	}

	return cardStyle.BorderForeground(BorderColor(att.State.Kind, exists)).Render(strings.Join(lines, "\n"))
}

// BorderColor picks the card colour for a state. Local attachments whose
// file is gone get their own colour.
func BorderColor(kind StateKind, exists bool) lipgloss.Color {
	switch kind {
	case StateUploading:
		return uploadingColor
	case StateUploaded:
		return uploadedColor
	case StateFailed:
		return failedColor
	default:
		if !exists {
			return missingColor
		}
		return localColor
	}
}

// IconFor returns the card icon for a content type
func IconFor(mime string, exists bool) string {
	if !exists {
		return "⚠"
	}
	switch ContentCategory(mime) {
	case "image":
		return "🖼"
	case "video":
		return "🎬"
	case "audio":
		return "🎶"
	default:
		return "📎"
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
