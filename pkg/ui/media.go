package ui

import (
	"fmt"
	"strconv"
	"strings"

	"igproxy/pkg/models"
)

// Field is one labelled row of a panel
type Field struct {
	Label string
	Value string
}

// Panel prints a bordered box with a title and labelled rows
func (p *Printer) Panel(title string, fields []Field) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.renderPanel(title, fields))
}

func (p *Printer) renderPanel(title string, fields []Field) string {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}

	lines := []string{p.styles.logo.Render(title)}
	for _, f := range fields {
		label := p.styles.label.Render(f.Label + strings.Repeat(" ", width-len(f.Label)))
		lines = append(lines, label+"  "+p.styles.value.Render(f.Value))
	}
	return p.styles.panel.Render(strings.Join(lines, "\n"))
}

// Media prints a profile summary, if present, followed by one numbered line
// per media item
func (p *Printer) Media(items []models.MediaItem) {
	fmt.Fprintln(p.out, p.RenderMedia(items))
}

// RenderMedia formats items the way Media prints them
func (p *Printer) RenderMedia(items []models.MediaItem) string {
	if len(items) == 0 {
		return p.styles.dim.Render("No media found for this request.")
	}

	var b strings.Builder
	n := 0
	for _, item := range items {
		if item.Type == models.MediaTypeProfile && item.Profile != nil {
			b.WriteString(p.renderPanel("@"+item.Profile.Username, profileFields(item.Profile)))
			b.WriteString("\n")
			continue
		}

		n++
		kind, ok := p.styles.kind[string(item.Type)]
		if !ok {
			kind = p.styles.dim
		}
		fmt.Fprintf(&b, "%s %s %s\n", p.styles.dim.Render(fmt.Sprintf("%3d.", n)), kind.Render(string(item.Type)), item.URL)
	}

	fmt.Fprintf(&b, "%s", p.styles.success.Render(fmt.Sprintf("%d media item(s)", n)))
	return b.String()
}

func profileFields(info *models.ProfileInfo) []Field {
	fields := []Field{
		{Label: "Name", Value: info.FullName},
		{Label: "Posts", Value: strconv.Itoa(info.PostsCount)},
		{Label: "Followers", Value: strconv.Itoa(info.Followers)},
		{Label: "Following", Value: strconv.Itoa(info.Following)},
	}
	if info.IsPrivate {
		fields = append(fields, Field{Label: "Private", Value: "yes"})
	}
	if info.Bio != "" {
		fields = append(fields, Field{Label: "Bio", Value: info.Bio})
	}
	return fields
}
