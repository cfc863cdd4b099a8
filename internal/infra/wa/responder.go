package wa

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// CommandHandler turns a chat message into a reply. An empty reply means
// the message is not addressed to the bot.
type CommandHandler interface {
	Execute(ctx context.Context, userID, name, msg string) (string, error)
}

type LIDResolver interface {
	ResolveLIDToPhone(ctx context.Context, lid string) string
}

type ResponderConfig struct {
	GroupID         string
	ReplyDelayMinMs int
	ReplyDelayMaxMs int
	ShowTyping      bool
}

// Responder answers leaderboard commands posted to the configured group.
type Responder struct {
	commands CommandHandler
	lids     LIDResolver
	cfg      ResponderConfig
	log      zerolog.Logger
}

func NewResponder(commands CommandHandler, lids LIDResolver, cfg ResponderConfig, logger zerolog.Logger) *Responder {
	return &Responder{commands: commands, lids: lids, cfg: cfg, log: logger}
}

func (r *Responder) Handle(ctx context.Context, client *whatsmeow.Client, evt *events.Message) {
	if r.cfg.GroupID != "" && evt.Info.Chat.String() != r.cfg.GroupID {
		return
	}
	if evt.Info.IsFromMe {
		return
	}

	msg := messageText(evt.Message)
	if msg == "" {
		return
	}

	userID := senderUserID(ctx, evt.Info.Sender, r.lids)
	pushName := evt.Info.PushName
	if pushName == "" {
		pushName = "Unknown"
	}

	response, err := r.commands.Execute(ctx, userID, pushName, msg)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID).Str("message", msg).Msg("error handling message")
		return
	}
	if response == "" {
		return
	}

	r.log.Info().Str("user_id", userID).Str("name", pushName).Str("message", msg).Msg("command handled")

	if delay := replyDelay(r.cfg.ReplyDelayMinMs, r.cfg.ReplyDelayMaxMs); delay > 0 {
		if r.cfg.ShowTyping {
			_ = client.SendChatPresence(ctx, evt.Info.Chat, types.ChatPresenceComposing, types.ChatPresenceMediaText)
		}
		time.Sleep(delay)
		if r.cfg.ShowTyping {
			_ = client.SendChatPresence(ctx, evt.Info.Chat, types.ChatPresencePaused, types.ChatPresenceMediaText)
		}
	}

	if _, err := client.SendMessage(ctx, evt.Info.Chat, &waE2E.Message{Conversation: &response}); err != nil {
		r.log.Error().Err(err).Str("chat", evt.Info.Chat.String()).Msg("failed to send response")
	}
}

func messageText(m *waE2E.Message) string {
	switch {
	case m == nil:
		return ""
	case m.Conversation != nil:
		return m.GetConversation()
	case m.ExtendedTextMessage != nil:
		return m.GetExtendedTextMessage().GetText()
	}
	return ""
}

// senderUserID keys users by phone number. Hidden-user (LID) senders are
// mapped back through whatsmeow's LID table when possible.
func senderUserID(ctx context.Context, jid types.JID, lids LIDResolver) string {
	if jid.Server == types.HiddenUserServer || (jid.Server == types.DefaultUserServer && len(jid.User) > 15) {
		if lids != nil {
			return lids.ResolveLIDToPhone(ctx, jid.User)
		}
	}
	return jid.User
}

// replyDelay picks a random delay in [minMs, maxMs]. A max at or below min
// means a fixed delay of minMs.
func replyDelay(minMs, maxMs int) time.Duration {
	ms := minMs
	if maxMs > minMs {
		ms = minMs + rand.Intn(maxMs-minMs+1)
	}
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
