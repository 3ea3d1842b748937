package api

import (
	"chatcore/internal/app/infrastructure/config"
	"chatcore/internal/app/infrastructure/storage"
	"chatcore/pkg/logger"
	"errors"
	"fmt"
	"github.com/nicklaw5/helix/v2"
	"net/http"
	"time"
)

const (
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second

	usersTTL     = time.Hour
	followersTTL = 10 * time.Minute
)

var ErrNotConfigured = errors.New("twitch api credentials are not configured")

type API struct {
	log     logger.Logger
	manager *config.Manager
	client  *helix.Client

	users     *storage.Cache[string, string]
	followers *storage.Cache[string, bool]
}

type Options struct {
	HTTPClient *http.Client
	// BaseURL переопределяет адрес Helix (тесты).
	BaseURL string
}

func New(log logger.Logger, manager *config.Manager, opts Options) (*API, error) {
	cfg := manager.Get()
	if cfg.Twitch.ClientID == "" || cfg.Twitch.AccessToken == "" {
		return nil, ErrNotConfigured
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	a := &API{
		log:       log,
		manager:   manager,
		users:     storage.NewCache[string, string](10_000, usersTTL, storage.ExpireAfterWrite),
		followers: storage.NewCache[string, bool](50_000, followersTTL, storage.ExpireAfterWrite),
	}

	client, err := helix.NewClient(&helix.Options{
		ClientID:        cfg.Twitch.ClientID,
		UserAccessToken: cfg.Twitch.AccessToken,
		HTTPClient:      opts.HTTPClient,
		APIBaseURL:      opts.BaseURL,
		RateLimitFunc:   a.rateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("helix: NewClient: %w", err)
	}
	a.client = client

	return a, nil
}

// rateLimit ждет сброса окна Helix, когда запросы кончились или пришел 429.
func (a *API) rateLimit(last *helix.Response) error {
	if last == nil {
		return nil
	}
	if last.StatusCode != http.StatusTooManyRequests && (last.GetRateLimit() == 0 || last.GetRateLimitRemaining() > 0) {
		return nil
	}

	wait := calcWaitDuration(last.GetRateLimitReset(), time.Now())
	if wait <= 0 {
		wait = baseBackoff
	}
	if wait > maxBackoff {
		wait = maxBackoff
	}

	a.log.Warn("Helix rate limit hit, backing off", "wait", wait.String())
	time.Sleep(wait)
	return nil
}

func calcWaitDuration(reset int, now time.Time) time.Duration {
	if reset <= 0 {
		return 0
	}

	resetTime := time.Unix(int64(reset), 0)
	if resetTime.Before(now) {
		return 0
	}
	return resetTime.Sub(now)
}

// status превращает ответ Helix с неожиданным статусом в error.
func status(op string, resp helix.ResponseCommon, ok ...int) error {
	if len(ok) == 0 {
		ok = []int{http.StatusOK}
	}
	for _, code := range ok {
		if resp.StatusCode == code {
			return nil
		}
	}
	return fmt.Errorf("helix: %s failed (%d: %s) %s", op, resp.StatusCode, resp.Error, resp.ErrorMessage)
}
