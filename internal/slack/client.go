package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/logging"
)

// ErrMissingToken is returned when a client is created without a token.
var ErrMissingToken = errors.New("slack token is required")

// Config configures a Client.
type Config struct {
	Token string
	// APIURL overrides the Slack API base URL, e.g. for tests.
	APIURL string

	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
	// Metrics receives retry counts. May be nil.
	Metrics *instrumentation.Metrics
}

// Client is a Slack Web API client bound to one token.
type Client struct {
	api    *slack.Client
	cfg    Config
	logger *slog.Logger
}

// NewClient creates a Client. Zero retry settings use the defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithService(logger, instrumentation.ServiceSlack)

	opts := []slack.Option{slack.OptionLog(logging.NewLibraryLog(logger, "slack-go"))}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		opts = append(opts, slack.OptionDebug(true))
	}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(strings.TrimRight(cfg.APIURL, "/")+"/"))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, slack.OptionHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:    slack.New(cfg.Token, opts...),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// GetConversations lists conversations visible to the token.
func (c *Client) GetConversations(ctx context.Context, opts ConversationsOptions) (*ConversationsPage, error) {
	type result struct {
		channels []slack.Channel
		cursor   string
	}

	params := &slack.GetConversationsParameters{
		Types:           opts.Types,
		ExcludeArchived: opts.ExcludeArchived,
		Limit:           opts.Limit,
		Cursor:          opts.Cursor,
	}
	res, err := call(ctx, c, "conversations.list", func(ctx context.Context) (result, error) {
		channels, cursor, err := c.api.GetConversationsContext(ctx, params)
		return result{channels, cursor}, err
	})
	if err != nil {
		return nil, err
	}

	page := &ConversationsPage{
		OK:               true,
		Channels:         make([]Channel, 0, len(res.channels)),
		ResponseMetadata: ResponseMetadata{NextCursor: res.cursor},
	}
	for _, ch := range res.channels {
		page.Channels = append(page.Channels, Channel{
			ID:         ch.ID,
			Name:       ch.Name,
			IsChannel:  ch.IsChannel,
			IsGroup:    ch.IsGroup,
			IsIM:       ch.IsIM,
			IsMpIM:     ch.IsMpIM,
			IsPrivate:  ch.IsPrivate,
			IsArchived: ch.IsArchived,
			Created:    int64(ch.Created),
			Creator:    ch.Creator,
			NumMembers: ch.NumMembers,
		})
	}
	return page, nil
}

// PostMessage sends text to a channel or user. A non-empty threadTS posts a
// reply in that thread.
func (c *Client) PostMessage(ctx context.Context, channel, text, threadTS string) (*PostedMessage, error) {
	type result struct {
		channel string
		ts      string
	}

	msgOpts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		msgOpts = append(msgOpts, slack.MsgOptionTS(threadTS))
	}
	res, err := call(ctx, c, "chat.postMessage", func(ctx context.Context) (result, error) {
		ch, ts, err := c.api.PostMessageContext(ctx, channel, msgOpts...)
		return result{ch, ts}, err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("posted slack message", logging.Channel(res.channel), slog.String("ts", res.ts))
	return &PostedMessage{OK: true, Channel: res.channel, TS: res.ts, Message: MessageText{Text: text}}, nil
}

// ListUsers returns every user of the workspace.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	users, err := c.users(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, User{
			ID:       u.ID,
			IsBot:    u.IsBot,
			RealName: u.Profile.RealName,
			Email:    u.Profile.Email,
		})
	}
	return out, nil
}

func (c *Client) users(ctx context.Context) ([]slack.User, error) {
	return call(ctx, c, "users.list", func(ctx context.Context) ([]slack.User, error) {
		return c.api.GetUsersContext(ctx)
	})
}

// FindUserByEmail looks a user up by email address.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*LookupResult, error) {
	u, err := call(ctx, c, "users.lookupByEmail", func(ctx context.Context) (*slack.User, error) {
		return c.api.GetUserByEmailContext(ctx, email)
	})
	if err != nil {
		c.logger.Debug("slack user lookup failed", logging.UserHash(email), logging.Err(err))
		return nil, err
	}

	return &LookupResult{
		OK: true,
		User: LookupUser{
			ID:       u.ID,
			Name:     u.Name,
			RealName: u.RealName,
			IsBot:    u.IsBot,
			Email:    u.Profile.Email,
			TimeZone: u.TZ,
		},
	}, nil
}

// ConversationHistory returns the messages of a conversation with mentions resolved.
func (c *Client) ConversationHistory(ctx context.Context, opts HistoryOptions) ([]SimplifiedMessage, error) {
	params := &slack.GetConversationHistoryParameters{
		ChannelID:          opts.Channel,
		Cursor:             opts.Cursor,
		Inclusive:          opts.Inclusive,
		Latest:             opts.Latest,
		Limit:              opts.Limit,
		Oldest:             opts.Oldest,
		IncludeAllMetadata: opts.IncludeAllMetadata,
	}
	return c.withNames(ctx, func(ctx context.Context) ([]slack.Message, error) {
		resp, err := call(ctx, c, "conversations.history", func(ctx context.Context) (*slack.GetConversationHistoryResponse, error) {
			return c.api.GetConversationHistoryContext(ctx, params)
		})
		if err != nil {
			return nil, err
		}
		return resp.Messages, nil
	})
}

// ConversationReplies returns the messages of a thread with mentions resolved.
func (c *Client) ConversationReplies(ctx context.Context, opts RepliesOptions) ([]SimplifiedMessage, error) {
	params := &slack.GetConversationRepliesParameters{
		ChannelID: opts.Channel,
		Timestamp: opts.ThreadTS,
		Cursor:    opts.Cursor,
		Inclusive: opts.Inclusive,
		Latest:    opts.Latest,
		Limit:     opts.Limit,
		Oldest:    opts.Oldest,
	}
	return c.withNames(ctx, func(ctx context.Context) ([]slack.Message, error) {
		return call(ctx, c, "conversations.replies", func(ctx context.Context) ([]slack.Message, error) {
			msgs, _, _, err := c.api.GetConversationRepliesContext(ctx, params)
			return msgs, err
		})
	})
}

// withNames fetches messages, the user map and the group map concurrently
// and simplifies the messages. Only a failure to fetch messages is an error.
func (c *Client) withNames(ctx context.Context, fetch func(context.Context) ([]slack.Message, error)) ([]SimplifiedMessage, error) {
	var (
		msgs   []slack.Message
		users  map[string]string
		groups map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		msgs, err = fetch(gctx)
		return err
	})
	g.Go(func() error {
		users = c.userMap(gctx)
		return nil
	})
	g.Go(func() error {
		groups = c.groupMap(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return SimplifyMessages(msgs, users, groups), nil
}

func (c *Client) userMap(ctx context.Context) map[string]string {
	m := map[string]string{}
	users, err := c.users(ctx)
	if err != nil {
		c.logger.Error("failed to fetch users list", logging.Err(err))
		return m
	}
	for _, u := range users {
		m[u.ID] = userDisplayName(u)
	}
	return m
}

func (c *Client) groupMap(ctx context.Context) map[string]string {
	m := map[string]string{}
	groups, err := call(ctx, c, "usergroups.list", func(ctx context.Context) ([]slack.UserGroup, error) {
		return c.api.GetUserGroupsContext(ctx)
	})
	if err != nil {
		c.logger.Error("failed to fetch usergroups list", logging.Err(err))
		return m
	}
	for _, g := range groups {
		m[g.ID] = g.Name
	}
	return m
}

// String identifies the client in logs without exposing the token.
func (c *Client) String() string {
	return fmt.Sprintf("slack.Client(%s)", logging.SanitizeToken(c.cfg.Token))
}
