package slack

// Channel is a conversation as returned by getConversations.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsChannel  bool   `json:"is_channel"`
	IsGroup    bool   `json:"is_group"`
	IsIM       bool   `json:"is_im"`
	IsMpIM     bool   `json:"is_mpim"`
	IsPrivate  bool   `json:"is_private"`
	IsArchived bool   `json:"is_archived"`
	Created    int64  `json:"created"`
	Creator    string `json:"creator"`
	NumMembers int    `json:"num_members,omitempty"`
}

// ResponseMetadata carries the pagination cursor.
type ResponseMetadata struct {
	NextCursor string `json:"next_cursor"`
}

// ConversationsPage is one page of conversations.
type ConversationsPage struct {
	OK               bool             `json:"ok"`
	Channels         []Channel        `json:"channels"`
	ResponseMetadata ResponseMetadata `json:"response_metadata"`
}

// ConversationsOptions filters conversations.list.
type ConversationsOptions struct {
	// Types is a subset of public_channel, private_channel, mpim, im.
	Types           []string
	ExcludeArchived bool
	Limit           int
	Cursor          string
}

// User is the reduced user record.
type User struct {
	ID       string `json:"id"`
	IsBot    bool   `json:"is_bot"`
	RealName string `json:"real_name"`
	Email    string `json:"email,omitempty"`
}

// LookupResult is the answer to a lookup by email.
type LookupResult struct {
	OK   bool       `json:"ok"`
	User LookupUser `json:"user"`
}

// LookupUser is the user found by email.
type LookupUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	IsBot    bool   `json:"is_bot"`
	Email    string `json:"email,omitempty"`
	TimeZone string `json:"tz,omitempty"`
}

// PostedMessage is the confirmation of chat.postMessage.
type PostedMessage struct {
	OK      bool        `json:"ok"`
	Channel string      `json:"channel"`
	TS      string      `json:"ts"`
	Message MessageText `json:"message"`
}

// MessageText is the text of a posted message.
type MessageText struct {
	Text string `json:"text"`
}

// SimplifiedMessage is a message with mentions resolved.
type SimplifiedMessage struct {
	Timestamp          string `json:"timestamp"`
	Text               string `json:"text"`
	User               string `json:"user"`
	Username           string `json:"username"`
	ThreadMessageCount int    `json:"threadMessageCount,omitempty"`
	ThreadTS           string `json:"thread_ts,omitempty"`
}

// HistoryOptions selects messages of conversations.history.
type HistoryOptions struct {
	Channel            string
	Limit              int
	Oldest             string
	Latest             string
	Inclusive          bool
	Cursor             string
	IncludeAllMetadata bool
}

// RepliesOptions selects messages of conversations.replies.
type RepliesOptions struct {
	Channel   string
	ThreadTS  string
	Limit     int
	Oldest    string
	Latest    string
	Inclusive bool
	Cursor    string
}
