// Package templates holds the HTML bodies of transactional emails. Components
// are written in templ; run `templ generate` after editing a .templ file.
package templates

import (
	"context"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// TeamInviteData fills the team invite email.
type TeamInviteData struct {
	TeamName  string
	AdminName string
	AcceptURL string
	ExpiresAt time.Time
}

func (d TeamInviteData) expiresLabel() string {
	return d.ExpiresAt.UTC().Format("02/01/2006 15:04 MST")
}

// Render renders tpl to a string.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
