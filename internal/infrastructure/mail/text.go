package mail

import (
	"strings"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

var tagStripper = strings.NewReplacer("<b>", "", "</b>", "", "<br>", "\n", "<br/>", "\n")

// plainText returns the text part of an email, deriving it from the HTML
// body when none was set.
func plainText(email domain.Email) string {
	if email.Text != "" {
		return email.Text
	}
	return tagStripper.Replace(email.HTML)
}
