package services

import (
	"context"
	"errors"
	"fmt"

	"auction-release-api/config"
	"auction-release-api/models"
	"auction-release-api/utils"

	"github.com/bwmarrin/discordgo"
	"gorm.io/gorm"
)

// UserNotifier delivers owner notifications over Discord DM when the owner
// has a linked Discord account, falling back to email otherwise.
type UserNotifier struct {
	db      *gorm.DB
	session *discordgo.Session
}

// NewUserNotifier constructs a UserNotifier. Both arguments may be nil;
// a nil db falls back to the global connection, a nil session disables DMs.
func NewUserNotifier(db *gorm.DB, session *discordgo.Session) *UserNotifier {
	if db == nil {
		db = config.DB
	}
	return &UserNotifier{db: db, session: session}
}

// Send delivers message to the owner. It returns ExternalServiceError on
// delivery failure; callers treat that as log-only.
func (n *UserNotifier) Send(ctx context.Context, ownerID int, message string) error {
	var user models.User
	err := n.db.WithContext(ctx).
		First(&user, "user_id = ? AND delete_at IS NULL", ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ExternalServiceError{Service: "notifier", Op: "lookup", Err: fmt.Errorf("owner %d not found", ownerID)}
	}
	if err != nil {
		return err
	}

	if n.session != nil && user.DiscordID != nil && *user.DiscordID != "" {
		if err := n.sendDM(ctx, *user.DiscordID, message); err == nil {
			return nil
		}
		// fall through to email
	}

	if utils.ValidateEmail(user.Email) && config.MailConfigured() {
		body := fmt.Sprintf("<p>Hi %s,</p><p>%s</p>", user.DisplayName(), message)
		if err := config.SendMail([]string{user.Email}, "Auction submission update", body); err != nil {
			return &ExternalServiceError{Service: "notifier", Op: "email", Err: err}
		}
		return nil
	}

	return &ExternalServiceError{Service: "notifier", Op: "send", Err: fmt.Errorf("no reachable channel for owner %d", ownerID)}
}

func (n *UserNotifier) sendDM(ctx context.Context, discordID, message string) error {
	channel, err := n.session.UserChannelCreate(discordID, discordgo.WithContext(ctx))
	if err != nil {
		return &ExternalServiceError{Service: "discord", Op: "dm-channel", Err: err}
	}
	if _, err := n.session.ChannelMessageSend(channel.ID, message, discordgo.WithContext(ctx)); err != nil {
		return &ExternalServiceError{Service: "discord", Op: "dm-send", Err: err}
	}
	return nil
}
