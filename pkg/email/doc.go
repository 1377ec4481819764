// Package email sends transactional mail through Postmark, or writes it to
// disk in development.
//
// Bodies are rendered from templ components in the templates subpackage:
//
//	html, err := templates.Render(ctx, templates.TeamInvite(data))
//	if err != nil {
//		return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   inv.Email,
//		Subject:  "Convite para a equipe",
//		BodyHTML: html,
//		Tag:      "team-invite",
//	})
package email
