package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brieflybot/briefly/internal/model"
	"github.com/brieflybot/briefly/internal/summarizer"
)

// Client handles Slack notifications
type Client struct {
	botToken   string
	channel    string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Slack client
func NewClient(botToken, channel string) *Client {
	return &Client{
		botToken: botToken,
		channel:  channel,
		baseURL:  "https://slack.com/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBaseURL overrides the API endpoint (used in tests)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// IsAvailable reports whether the client has credentials to post
func (c *Client) IsAvailable() bool {
	return c.botToken != "" && c.channel != ""
}

// Text is a Block Kit text object
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Block is a Block Kit layout block
type Block struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text,omitempty"`
	Elements []Text `json:"elements,omitempty"`
}

// Attachment carries the color bar and footer of a message
type Attachment struct {
	Color  string `json:"color"`
	Footer string `json:"footer"`
}

// Message represents a Slack chat.postMessage payload body
type Message struct {
	Text        string       `json:"text"`
	Blocks      []Block      `json:"blocks,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// chatPostMessageRequest represents a Slack chat.postMessage request
type chatPostMessageRequest struct {
	Channel     string       `json:"channel"`
	Text        string       `json:"text"`
	Blocks      []Block      `json:"blocks,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Username    string       `json:"username,omitempty"`
	IconEmoji   string       `json:"icon_emoji,omitempty"`
}

// BuildDigestMessage renders a daily digest summary and its articles
// into a Block Kit message
func BuildDigestMessage(summary *summarizer.TLDRSummary, articles []model.Article) Message {
	blocks := []Block{
		{
			Type: "header",
			Text: &Text{Type: "plain_text", Text: "🚀 AI/ML News TLDR - Daily Digest", Emoji: true},
		},
		{
			Type: "section",
			Text: &Text{Type: "mrkdwn", Text: summary.TLDRText},
		},
	}

	if len(summary.KeyPoints) > 0 {
		points := summary.KeyPoints
		if len(points) > 3 {
			points = points[:3]
		}
		var b strings.Builder
		b.WriteString("*Key Points:*")
		for _, p := range points {
			b.WriteString("\n• " + p)
		}
		blocks = append(blocks, Block{
			Type: "section",
			Text: &Text{Type: "mrkdwn", Text: b.String()},
		})
	}

	if len(summary.TrendingTopics) > 0 {
		topics := summary.TrendingTopics
		if len(topics) > 3 {
			topics = topics[:3]
		}
		blocks = append(blocks, Block{
			Type: "section",
			Text: &Text{Type: "mrkdwn", Text: "*Trending:* " + strings.Join(topics, ", ")},
		})
	}

	if len(articles) > 0 {
		blocks = append(blocks, Block{Type: "divider"})
		for i, a := range articles {
			text := fmt.Sprintf("*%d. %s*\n📰 *Source:* %s | 🏷️ *Category:* %s\n<%s|Read more>",
				i+1, a.Title, a.Source, a.Category, a.URL)
			blocks = append(blocks, Block{
				Type: "section",
				Text: &Text{Type: "mrkdwn", Text: text},
			})
			if i < len(articles)-1 {
				blocks = append(blocks, Block{Type: "divider"})
			}
		}
	}

	blocks = append(blocks, Block{
		Type: "context",
		Elements: []Text{
			{
				Type: "mrkdwn",
				Text: fmt.Sprintf("📊 %d articles | 🎯 %s impact | ⏱️ %s",
					summary.ArticleCount, summary.ImpactLevel, summary.ReadingTime),
			},
		},
	})

	return Message{
		Text:   fmt.Sprintf("%s *AI/ML News TLDR*\n\n%s", summary.Emoji, summary.TLDRText),
		Blocks: blocks,
		Attachments: []Attachment{
			{
				Color:  summary.Color,
				Footer: fmt.Sprintf("Generated at %s using %s", summary.GeneratedAt, summary.ModelUsed),
			},
		},
	}
}

// PostMessage sends a message to the given channel; an empty channel
// falls back to the client default. Returns the message timestamp.
func (c *Client) PostMessage(ctx context.Context, msg Message, channel string) (string, error) {
	if channel == "" {
		channel = c.channel
	}

	req := chatPostMessageRequest{
		Channel:     channel,
		Text:        msg.Text,
		Blocks:      msg.Blocks,
		Attachments: msg.Attachments,
		Username:    "Briefly Bot",
		IconEmoji:   ":robot_face:",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.botToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if !slackResp.OK {
		return "", fmt.Errorf("slack API error: %s", slackResp.Error)
	}

	return slackResp.TS, nil
}

// PostDigest renders and posts a digest to the default channel
func (c *Client) PostDigest(ctx context.Context, summary *summarizer.TLDRSummary, articles []model.Article) (string, error) {
	return c.PostMessage(ctx, BuildDigestMessage(summary, articles), c.channel)
}

// SendSimpleMessage sends a plain text message to the default channel
func (c *Client) SendSimpleMessage(ctx context.Context, text string) error {
	_, err := c.PostMessage(ctx, Message{Text: text}, c.channel)
	return err
}

// AuthInfo describes the bot identity returned by auth.test
type AuthInfo struct {
	Team   string `json:"team"`
	TeamID string `json:"team_id"`
	User   string `json:"user"`
	UserID string `json:"user_id"`
}

// TestAuth verifies the bot token against the auth.test endpoint
func (c *Client) TestAuth(ctx context.Context) (*AuthInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/auth.test", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.botToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	var authResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
		AuthInfo
	}

	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if !authResp.OK {
		return nil, fmt.Errorf("slack API error: %s", authResp.Error)
	}

	return &authResp.AuthInfo, nil
}
