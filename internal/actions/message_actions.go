package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/matheus3301/mailmirror/internal/store"
)

// Draft is what a composer submits to PostMessage.
type Draft struct {
	Body          string
	Subject       string
	AttachmentIDs []float64

	// InReplyTo targets a specific message. Required when posting from a
	// mailbox view, where the post goes to the message's origin document.
	InReplyTo store.LocalID
}

// PostMessage sends a draft to a thread. Channel posts come back through
// the push channel; document posts do not, so the formatted message is
// fetched and inserted explicitly. A leading /command in a channel routes
// to command execution instead of a plain post.
func (o *Orchestrator) PostMessage(ctx context.Context, threadID store.LocalID, draft Draft) error {
	th, ok := o.store.Thread(threadID)
	if !ok {
		return fmt.Errorf("posting: unknown thread %s", threadID)
	}

	// mailbox posts re-target the replied message's origin document
	if threadID.Kind == store.KindMailbox {
		m, ok := o.store.Message(draft.InReplyTo)
		if !ok || m.OriginThread.IsZero() {
			return fmt.Errorf("posting from mailbox %s: no origin thread to target", threadID)
		}
		threadID = m.OriginThread
		if th, ok = o.store.Thread(threadID); !ok {
			return fmt.Errorf("posting: unknown origin thread %s", threadID)
		}
	}

	body := draft.Body
	if o.enrich != nil {
		body = o.enrich.Enrich(body)
	}

	if threadID.Kind == store.KindChannel {
		if cmd, ok := parseCommand(body); ok {
			return o.executeCommand(ctx, th, cmd, body)
		}
		return o.postToChannel(ctx, th, body, draft)
	}
	return o.postToDocument(ctx, threadID, body, draft)
}

// parseCommand detects a leading "/word" token and returns the bare word.
func parseCommand(body string) (string, bool) {
	if !strings.HasPrefix(body, "/") {
		return "", false
	}
	token, _, _ := strings.Cut(body[1:], " ")
	if token == "" {
		return "", false
	}
	for _, r := range token {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "", false
		}
	}
	return token, true
}

func (o *Orchestrator) executeCommand(ctx context.Context, th store.Thread, cmd, body string) error {
	_, err := o.rpc.Call(ctx, Request{
		Model:  "mail.channel",
		Method: "execute_command",
		Args:   []any{[]float64{th.ID}},
		Kwargs: map[string]any{"command": cmd, "body": body},
	})
	if err != nil {
		return fmt.Errorf("executing /%s in channel %v: %w", cmd, th.ID, err)
	}
	return nil
}

func (o *Orchestrator) postToChannel(ctx context.Context, th store.Thread, body string, draft Draft) error {
	_, err := o.rpc.Call(ctx, Request{
		Model:  "mail.channel",
		Method: "message_post",
		Args:   []any{th.ID},
		Kwargs: postKwargs(body, draft),
	})
	if err != nil {
		return fmt.Errorf("posting to channel %v: %w", th.ID, err)
	}
	// the message itself arrives through the push echo
	o.store.IncrementCachePostCount(store.CacheKey{Thread: th.LocalID(), Filter: store.EmptyFilterKey})
	return nil
}

func (o *Orchestrator) postToDocument(ctx context.Context, threadID store.LocalID, body string, draft Draft) error {
	raw, err := o.rpc.Call(ctx, Request{
		Model:  string(threadID.Kind),
		Method: "message_post",
		Args:   []any{threadID.ID},
		Kwargs: postKwargs(body, draft),
	})
	if err != nil {
		return fmt.Errorf("posting to %s: %w", threadID, err)
	}
	var messageID float64
	if err := json.Unmarshal(raw, &messageID); err != nil {
		return fmt.Errorf("decoding posted message id: %w", err)
	}

	// no push echo outside channels; fetch the formatted message ourselves
	raw, err = o.rpc.Call(ctx, Request{
		Model:  "mail.message",
		Method: "message_format",
		Args:   []any{[]float64{messageID}},
	})
	if err != nil {
		return fmt.Errorf("fetching posted message %v: %w", messageID, err)
	}
	var msgs []store.MessageData
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return fmt.Errorf("decoding posted message: %w", err)
	}
	for _, data := range msgs {
		o.store.InsertMessage(data)
	}
	o.store.IncrementCachePostCount(store.CacheKey{Thread: threadID, Filter: store.EmptyFilterKey})
	return nil
}

func postKwargs(body string, draft Draft) map[string]any {
	kw := map[string]any{
		"body":          body,
		"message_type":  "comment",
		"subtype_xmlid": "mail.mt_comment",
	}
	if draft.Subject != "" {
		kw["subject"] = draft.Subject
	}
	if len(draft.AttachmentIDs) > 0 {
		kw["attachment_ids"] = draft.AttachmentIDs
	}
	return kw
}

// MarkMessagesAsRead optimistically moves messages out of the inbox and
// best-effort reports it; the notification channel reconciles stragglers.
func (o *Orchestrator) MarkMessagesAsRead(ctx context.Context, messageIDs []float64) {
	o.store.HandleMarkAsRead(messageIDs)
	_, err := o.rpc.Call(ctx, Request{
		Model:  "mail.message",
		Method: "set_message_done",
		Args:   []any{messageIDs},
		Shadow: true,
	})
	if err != nil {
		o.log.Debug("mark-as-read sync failed", zap.Error(err))
	}
}

// MarkAllAsRead empties the inbox remotely; the resulting notification
// carries the affected message ids back.
func (o *Orchestrator) MarkAllAsRead(ctx context.Context, filter store.Filter) {
	_, err := o.rpc.Call(ctx, Request{
		Model:  "mail.message",
		Method: "mark_all_as_read",
		Kwargs: map[string]any{"domain": filter},
		Shadow: true,
	})
	if err != nil {
		o.log.Debug("mark-all-as-read failed", zap.Error(err))
	}
}

// ToggleStarMessage flips a message's star optimistically and best-effort
// reports it.
func (o *Orchestrator) ToggleStarMessage(ctx context.Context, messageID store.LocalID) {
	m, ok := o.store.Message(messageID)
	if !ok {
		return
	}
	starred := m.ThreadIDs.Contains(store.StarredID)
	o.store.HandleToggleStar([]float64{m.ID}, !starred)
	_, err := o.rpc.Call(ctx, Request{
		Model:  "mail.message",
		Method: "toggle_message_starred",
		Args:   []any{[]float64{m.ID}},
		Shadow: true,
	})
	if err != nil {
		o.log.Debug("star sync failed", zap.Float64("message", m.ID), zap.Error(err))
	}
}

// UnstarAll clears the starred mailbox optimistically and best-effort
// reports it.
func (o *Orchestrator) UnstarAll(ctx context.Context) {
	if th, ok := o.store.Thread(store.StarredID); ok {
		ids := make([]float64, 0, len(th.MessageIDs))
		for _, mid := range th.MessageIDs {
			ids = append(ids, mid.ID)
		}
		o.store.HandleToggleStar(ids, false)
	}
	_, err := o.rpc.Call(ctx, Request{
		Model:  "mail.message",
		Method: "unstar_all",
		Shadow: true,
	})
	if err != nil {
		o.log.Debug("unstar-all sync failed", zap.Error(err))
	}
}

// UnlinkAttachment removes an attachment locally and best-effort deletes
// it remotely. Temporary attachments never reached the server, so only the
// local record goes.
func (o *Orchestrator) UnlinkAttachment(ctx context.Context, attID store.LocalID) {
	a, ok := o.store.Attachment(attID)
	if !ok {
		return
	}
	o.store.DeleteAttachment(attID)
	if a.IsTemporary {
		return
	}
	_, err := o.rpc.Call(ctx, Request{
		Model:  "ir.attachment",
		Method: "unlink",
		Args:   []any{[]float64{a.ID}},
		Shadow: true,
	})
	if err != nil {
		o.log.Debug("attachment delete sync failed", zap.Float64("attachment", a.ID), zap.Error(err))
	}
}
