// Package mattermost provides webhook client for sending notifications to Mattermost.
package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aimd54/arcade-hub/internal/config"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// Client handles Mattermost webhook notifications.
type Client struct {
	webhookURL string
	channel    string
	hubURL     string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new Mattermost client.
func NewClient(cfg *config.MattermostConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		hubURL:     strings.TrimRight(cfg.HubURL, "/"),
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Message represents a Mattermost message payload.
type Message struct {
	Channel     string       `json:"channel,omitempty"`
	Username    string       `json:"username,omitempty"`
	Text        string       `json:"text,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a message attachment.
type Attachment struct {
	Fallback  string  `json:"fallback,omitempty"`
	Color     string  `json:"color,omitempty"`
	Pretext   string  `json:"pretext,omitempty"`
	Title     string  `json:"title,omitempty"`
	TitleLink string  `json:"title_link,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Footer    string  `json:"footer,omitempty"`
}

// Field represents a message field.
type Field struct {
	Short bool   `json:"short"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// Enabled reports whether messages are actually sent.
func (c *Client) Enabled() bool {
	return c.enabled
}

// SendMessage sends a message to Mattermost.
func (c *Client) SendMessage(ctx context.Context, msg *Message) error {
	if !c.enabled {
		c.log.Debug().Msg("Mattermost is disabled, skipping message")
		return nil
	}

	if msg.Channel == "" {
		msg.Channel = c.channel
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Mattermost: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mattermost returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("channel", msg.Channel).
		Msg("Sent message to Mattermost")

	return nil
}

// SendSimpleMessage sends a simple text message.
func (c *Client) SendSimpleMessage(ctx context.Context, text string) error {
	return c.SendMessage(ctx, &Message{
		Text: text,
	})
}

// NewRecord describes a submission that beat a game's previous best.
type NewRecord struct {
	GameName     string
	Username     string
	DisplayScore string
	TotalEntries int64
}

// AnnounceNewRecord posts a new-record announcement.
func (c *Client) AnnounceNewRecord(ctx context.Context, rec NewRecord) error {
	if !c.enabled {
		return nil
	}

	attachment := Attachment{
		Fallback: fmt.Sprintf("New record in %s: %s by %s", rec.GameName, rec.DisplayScore, rec.Username),
		Color:    "#f5a623",
		Title:    fmt.Sprintf("🏆 New record in %s", rec.GameName),
		Fields: []Field{
			{Short: true, Title: "Player", Value: rec.Username},
			{Short: true, Title: "Score", Value: rec.DisplayScore},
			{Short: true, Title: "Entries", Value: fmt.Sprintf("%d", rec.TotalEntries)},
		},
		Footer: "Arcade Hub",
	}
	if c.hubURL != "" {
		attachment.TitleLink = c.hubURL + "/leaderboard/" + url.PathEscape(rec.GameName)
	}

	return c.SendMessage(ctx, &Message{
		Username:    "Arcade Hub",
		Attachments: []Attachment{attachment},
	})
}

// DailyGame describes the featured game of the day.
type DailyGame struct {
	Name        string
	Description string
	Icon        string
	Category    string
	Path        string
	TopPlayer   string
	TopScore    string
}

// AnnounceDailyGame posts the featured game of the day.
func (c *Client) AnnounceDailyGame(ctx context.Context, game DailyGame) error {
	if !c.enabled {
		return nil
	}

	title := "Game of the day: " + game.Name
	if game.Icon != "" {
		title = game.Icon + " " + title
	}

	fields := []Field{{Short: true, Title: "Category", Value: game.Category}}
	if game.TopPlayer != "" {
		fields = append(fields, Field{Short: true, Title: "Score to beat", Value: fmt.Sprintf("%s by %s", game.TopScore, game.TopPlayer)})
	} else {
		fields = append(fields, Field{Short: true, Title: "Score to beat", Value: "No scores yet, be the first!"})
	}

	attachment := Attachment{
		Fallback: title,
		Color:    "#4a90e2",
		Title:    title,
		Text:     game.Description,
		Fields:   fields,
		Footer:   "Arcade Hub",
	}
	if c.hubURL != "" && game.Path != "" {
		attachment.TitleLink = c.hubURL + "/" + strings.TrimLeft(game.Path, "/")
	}

	return c.SendMessage(ctx, &Message{
		Username:    "Arcade Hub",
		Attachments: []Attachment{attachment},
	})
}
