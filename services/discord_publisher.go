package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"auction-release-api/models"

	"github.com/bwmarrin/discordgo"
)

// threadAutoArchiveMinutes keeps listing threads visible for the whole
// cycle before Discord auto-archives them.
const threadAutoArchiveMinutes = 1440

// DiscordPublisher posts each released submission as a forum thread in the
// channel configured for its queue. The thread id is the public handle.
type DiscordPublisher struct {
	session           *discordgo.Session
	forums            map[models.QueueType]string
	staffLogChannelID string
}

// NewDiscordPublisherFromEnv wires the publisher from DISCORD_FORUM_NORMAL,
// DISCORD_FORUM_SKIP, DISCORD_FORUM_SPECIAL and STAFF_LOG_CHANNEL_ID.
func NewDiscordPublisherFromEnv(session *discordgo.Session) *DiscordPublisher {
	return &DiscordPublisher{
		session: session,
		forums: map[models.QueueType]string{
			models.QueueNormal:  os.Getenv("DISCORD_FORUM_NORMAL"),
			models.QueueSkip:    os.Getenv("DISCORD_FORUM_SKIP"),
			models.QueueSpecial: os.Getenv("DISCORD_FORUM_SPECIAL"),
		},
		staffLogChannelID: os.Getenv("STAFF_LOG_CHANNEL_ID"),
	}
}

// Post creates a forum thread for the submission and returns the thread id.
func (p *DiscordPublisher) Post(ctx context.Context, sub *models.Submission) (string, error) {
	if p.session == nil {
		return "", &ExternalServiceError{Service: "discord", Op: "post", Err: errors.New("no session")}
	}
	forumID := p.forums[sub.QueueType]
	if forumID == "" {
		return "", &ExternalServiceError{Service: "discord", Op: "post", Err: fmt.Errorf("no forum configured for queue %s", sub.QueueType)}
	}

	name := fmt.Sprintf("Auction #%d: %s", sub.SubmissionID, sub.Title)
	content := fmt.Sprintf("Auction started ✅\nQueue: %s", sub.QueueType)
	if sub.ImageURL != nil && *sub.ImageURL != "" {
		content += "\n" + *sub.ImageURL
	}

	thread, err := p.session.ForumThreadStart(forumID, name, threadAutoArchiveMinutes, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", &ExternalServiceError{Service: "discord", Op: "post", Err: err}
	}
	return thread.ID, nil
}

// Close archives and locks the listing thread. A handle that no longer
// resolves counts as already closed.
func (p *DiscordPublisher) Close(ctx context.Context, handle string) error {
	if p.session == nil {
		return &ExternalServiceError{Service: "discord", Op: "close", Err: errors.New("no session")}
	}

	archived, locked := true, true
	_, err := p.session.ChannelEditComplex(handle, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	}, discordgo.WithContext(ctx))
	if err == nil || isUnknownChannel(err) {
		return nil
	}
	return &ExternalServiceError{Service: "discord", Op: "close", Err: err}
}

// StaffLog posts an audit line to the staff log channel. Best effort.
func (p *DiscordPublisher) StaffLog(ctx context.Context, message string) error {
	if p.session == nil || p.staffLogChannelID == "" {
		return nil
	}
	if _, err := p.session.ChannelMessageSend(p.staffLogChannelID, message, discordgo.WithContext(ctx)); err != nil {
		return &ExternalServiceError{Service: "discord", Op: "staff-log", Err: err}
	}
	return nil
}

func isUnknownChannel(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownChannel
	}
	return false
}
