package dispatch

import (
	"strings"

	"herald/contexts/outreach/dispatch-service/domain/entities"
)

// defaultGreeting substitutes for {first_name} when the member has none, so
// "Hey {first_name}" never renders as "Hey ".
const defaultGreeting = "there"

// RenderTemplate substitutes the member placeholders in a message template.
// Absent fields render as empty strings, except first_name which falls back
// to a neutral greeting.
func RenderTemplate(template string, member entities.Member) string {
	firstName := member.FirstName
	if firstName == "" {
		firstName = defaultGreeting
	}
	replacer := strings.NewReplacer(
		"{first_name}", firstName,
		"{last_name}", member.LastName,
		"{username}", member.Username,
	)
	return replacer.Replace(template)
}
