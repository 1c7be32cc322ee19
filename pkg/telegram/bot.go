package telegram

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const apiURL = "https://api.telegram.org"

type Bot struct {
	client  *http.Client
	baseURL string
}

func NewBot(token string) *Bot {
	return newBot(apiURL, token)
}

func newBot(api, token string) *Bot {
	return &Bot{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: api + "/bot" + token,
	}
}

// SendMessage posts text to the chat via the Bot API sendMessage method.
func (b *Bot) SendMessage(chatID, text string) error {
	params := url.Values{}
	params.Add("chat_id", chatID)
	params.Add("text", text)

	resp, err := b.client.PostForm(b.baseURL+"/sendMessage", params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: %s", resp.Status)
	}
	return nil
}
