package slack

import (
	"regexp"

	"github.com/slack-go/slack"
)

var mentionRe = regexp.MustCompile(`<(@|!subteam\^)([A-Z0-9]+)>`)

// ResolveMentions replaces <@U…> with @<user name> and <!subteam^S…> with
// @<group name>. Unknown users keep their id; unknown groups become team-<id>.
func ResolveMentions(text string, users, groups map[string]string) string {
	return mentionRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := mentionRe.FindStringSubmatch(m)
		kind, id := sub[1], sub[2]
		if kind == "@" {
			if name, ok := users[id]; ok {
				return "@" + name
			}
			return "@" + id
		}
		if name, ok := groups[id]; ok {
			return "@" + name
		}
		return "@team-" + id
	})
}

// SimplifyMessages reduces messages to SimplifiedMessage with mentions resolved.
func SimplifyMessages(msgs []slack.Message, users, groups map[string]string) []SimplifiedMessage {
	out := make([]SimplifiedMessage, 0, len(msgs))
	for _, m := range msgs {
		username := m.User
		if name, ok := users[m.User]; ok {
			username = name
		}
		out = append(out, SimplifiedMessage{
			Timestamp:          m.Timestamp,
			Text:               ResolveMentions(m.Text, users, groups),
			User:               m.User,
			Username:           username,
			ThreadMessageCount: m.ReplyCount,
			ThreadTS:           m.ThreadTimestamp,
		})
	}
	return out
}

func userDisplayName(u slack.User) string {
	switch {
	case u.RealName != "":
		return u.RealName
	case u.Name != "":
		return u.Name
	default:
		return u.ID
	}
}
