package services

import (
	"strconv"
	"strings"

	"github.com/voicereachhq/voicereach-backend/internal/models"
)

// RenderScript substitutes lead placeholders into a campaign step's script
// template. Placeholders with no value on the lead are left untouched so the
// agent reviewing a transcript can see what was missing.
func RenderScript(template string, lead *models.Lead) string {
	if lead == nil {
		return template
	}

	replacements := map[string]string{
		"{firstName}": lead.FirstName,
		"{lastName}":  lead.LastName,
		"{email}":     lead.Email,
		"{phone}":     lead.Phone,
		"{source}":    string(lead.Source),
	}
	if lead.Budget != nil {
		replacements["{budget}"] = FormatThousands(*lead.Budget)
	}
	if lead.Timeline != "" {
		replacements["{timeline}"] = lead.Timeline
	}

	rendered := template
	for placeholder, value := range replacements {
		rendered = strings.ReplaceAll(rendered, placeholder, value)
	}
	return rendered
}

// FormatThousands renders an amount with comma separators, e.g. 450000 -> "450,000"
func FormatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}
