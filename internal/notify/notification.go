// Package notify decodes push-notification batches from the backend and
// routes each item to the mutation or action that folds it into the store.
package notify

import "github.com/matheus3301/mailmirror/internal/store"

// Notification is the closed set of push shapes the dispatcher
// understands. Decoding produces exactly one of these per item; unknown
// shapes become Ignored, never an error.
type Notification interface {
	isNotification()
}

// ChannelMessage is a message posted to a channel the user belongs to.
type ChannelMessage struct {
	ChannelID float64
	Message   store.MessageData
}

// ChannelSeen moves a member's read watermark in a channel.
type ChannelSeen struct {
	ChannelID     float64
	PartnerID     float64
	LastMessageID float64
}

// MarkAsRead reports messages handled elsewhere and gone from the inbox.
type MarkAsRead struct {
	MessageIDs []float64
}

// ToggleStar reports a star state change for a batch of messages.
type ToggleStar struct {
	MessageIDs []float64
	Starred    bool
}

// TransientMessage carries a local-only system message, e.g. a command
// response.
type TransientMessage struct {
	Message store.MessageData
}

// Unsubscribe reports the user left or unpinned a channel.
type Unsubscribe struct {
	ChannelID float64
}

// UserConnection reports a user coming online for the first time.
type UserConnection struct {
	PartnerID float64
	Name      string
}

// ChannelState carries updated conversation metadata (fold state, pin,
// counters) delivered on the partner channel.
type ChannelState struct {
	Thread store.ThreadData
}

// Needaction delivers a message that needs the user's attention.
type Needaction struct {
	Message store.MessageData
}

// Ignored is any recognized-but-irrelevant or unknown shape.
type Ignored struct {
	Reason string
}

func (ChannelMessage) isNotification()   {}
func (ChannelSeen) isNotification()      {}
func (MarkAsRead) isNotification()       {}
func (ToggleStar) isNotification()       {}
func (TransientMessage) isNotification() {}
func (Unsubscribe) isNotification()      {}
func (UserConnection) isNotification()   {}
func (ChannelState) isNotification()     {}
func (Needaction) isNotification()       {}
func (Ignored) isNotification()          {}

// Item is one decoded batch entry: the addressing header plus its decoded
// notification.
type Item struct {
	Origin     string
	TargetKind string
	TargetID   float64

	Notification Notification
}
