// Package chat connects the bot to Twitch IRC and routes recipe commands.
//
// It provides one entrypoint, StartRecipeBot, which joins TWITCH_CHANNEL,
// watches for the configured command (default "!recipe"), and hands each
// command to the pipeline coordinator. Replies go back to the same channel
// mentioning the requester; each command runs in its own goroutine so a slow
// video never blocks chat handling.
//
// Credentials: the IRC client requires a bot username and an OAuth token with
// chat:read/chat:edit scopes.
package chat

import (
	"context"
	"log/slog"
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"

	"github.com/onnwee/recipe-scribe/pipeline"
)

// ParseCommand reports whether text invokes command and returns its first
// argument. matched is true whenever the first token equals command
// (case-insensitively); arg is empty when the invocation carries no link.
func ParseCommand(command, text string) (arg string, matched bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.EqualFold(fields[0], command) {
		return "", false
	}
	if len(fields) < 2 {
		return "", true
	}
	return fields[1], true
}

// StartRecipeBot connects to Twitch IRC and blocks until ctx is cancelled.
// Connection errors are logged; the caller decides whether to restart.
func StartRecipeBot(ctx context.Context, username, oauth, channel, command string, coord *pipeline.Coordinator) {
	client := twitch.NewClient(username, oauth)

	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		url, matched := ParseCommand(command, msg.Message)
		if !matched {
			return
		}
		mention := "@" + msg.User.DisplayName
		if url == "" {
			client.Say(channel, mention+" usage: "+command+" <video link>")
			return
		}
		req := pipeline.Request{
			RequesterID:    msg.User.ID,
			RequesterLogin: msg.User.Name,
			RawURL:         url,
			CorrelationID:  uuid.NewString(),
		}
		slog.Info("recipe command received",
			slog.String("requester", req.RequesterLogin),
			slog.String("correlation_id", req.CorrelationID))
		go func() {
			resp := coord.Handle(ctx, req)
			client.Say(channel, mention+" "+resp.Message)
		}()
	})

	// Handle context cancellation by closing the client
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		client.Disconnect()
		close(done)
	}()

	client.Join(channel)
	if err := client.Connect(); err != nil {
		slog.Error("twitch chat connect error", slog.Any("err", err))
	}
	<-done
}
