package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mooncall/shared/logger"

	"github.com/dghubble/oauth1"
)

const tweetEndpoint = "https://api.twitter.com/2/tweets"

// TwitterClient posts alert tweets through the v2 API with OAuth1 user
// context. When credentials are incomplete the client runs in dry-run mode:
// tweets are logged instead of sent, so a bare deployment still exercises
// the full alert path.
type TwitterClient struct {
	httpClient *http.Client
	appLogger  *logger.Logger
	dryRun     bool
}

func NewTwitterClient(apiKey, apiKeySecret, accessToken, accessTokenSecret string, appLogger *logger.Logger) *TwitterClient {
	if apiKey == "" || apiKeySecret == "" || accessToken == "" || accessTokenSecret == "" {
		appLogger.Warn("Twitter credentials incomplete, running tweet client in dry-run mode")
		return &TwitterClient{appLogger: appLogger, dryRun: true}
	}

	oauthConfig := oauth1.NewConfig(apiKey, apiKeySecret)
	token := oauth1.NewToken(accessToken, accessTokenSecret)
	httpClient := oauthConfig.Client(oauth1.NoContext, token)
	httpClient.Timeout = fetchTimeout

	return &TwitterClient{
		httpClient: httpClient,
		appLogger:  appLogger,
	}
}

type tweetPayload struct {
	Text string `json:"text"`
}

// Post publishes one tweet. The v2 endpoint answers 201 on success; anything
// else is an error for the caller to log. There is no retry here: a failed
// alert tweet is stale by the time a retry would land.
func (c *TwitterClient) Post(ctx context.Context, text string) error {
	if c.dryRun {
		c.appLogger.Info("Dry-run tweet (not sent)", "text", text)
		return nil
	}

	body, err := json.Marshal(tweetPayload{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal tweet payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tweetEndpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tweet request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tweet rejected: status %d, body %s", resp.StatusCode, string(respBody))
	}

	c.appLogger.Info("Tweet sent successfully")
	return nil
}
