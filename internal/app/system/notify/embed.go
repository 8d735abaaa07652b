// internal/app/system/notify/embed.go
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/guildtools/partyhub/internal/domain/models"
)

// Discord webhook wire shapes. Only the fields we send.
type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

const embedColor = 0x2ecc71

// buildEmbed renders a group announcement: who opened it, which roles are
// filled, which are still open, and a link to join.
func buildEmbed(g models.Group, siteURL string) embed {
	var filled, open []string
	for _, s := range g.Slots {
		if s.User != nil {
			filled = append(filled, fmt.Sprintf("%s: %s", s.Role, s.User.Nick))
		} else {
			open = append(open, s.Role)
		}
	}

	fields := []embedField{
		{Name: "Leader", Value: g.CreatorNick, Inline: true},
		{Name: "Capacity", Value: fmt.Sprintf("%d/%d", len(filled), len(g.Slots)), Inline: true},
	}
	if len(filled) > 0 {
		fields = append(fields, embedField{Name: "Roster", Value: strings.Join(filled, "\n")})
	}
	if len(open) > 0 {
		fields = append(fields, embedField{Name: "Open roles", Value: strings.Join(open, ", ")})
	}

	e := embed{
		Title:       g.Name,
		Description: g.Description,
		Color:       embedColor,
		Fields:      fields,
		Timestamp:   g.CreatedAt.UTC().Format(time.RFC3339),
	}
	if siteURL != "" {
		e.URL = siteURL + "/groups/" + g.ID.Hex()
	}
	return e
}
