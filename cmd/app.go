package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/looksy-group/stylist-api/internal/config"
	"github.com/looksy-group/stylist-api/internal/outfit"
	"github.com/looksy-group/stylist-api/internal/resolver"
	"github.com/looksy-group/stylist-api/internal/scorer"
	"github.com/looksy-group/stylist-api/pkg/gigachat"
)

// app holds the wired pipeline shared by the serve and generate commands.
type app struct {
	service *outfit.Service
}

// initApp builds the chat client, resolver and ranker from config. Missing
// GigaChat credentials are not an error: the client degrades to its sentinel
// token and the service answers from templates.
func initApp(cfg *config.Config) (*app, error) {
	if cfg.GigaChat.ClientID == "" || cfg.GigaChat.ClientSecret == "" {
		zap.L().Warn("gigachat credentials not set, running in degraded mode")
	}

	chat := gigachat.NewClient(cfg.GigaChat.ClientID, cfg.GigaChat.ClientSecret,
		gigachat.WithBaseURL(cfg.GigaChat.BaseURL),
		gigachat.WithAuthURL(cfg.GigaChat.AuthURL),
		gigachat.WithScope(cfg.GigaChat.Scope),
		gigachat.WithModel(cfg.GigaChat.Model),
		gigachat.WithDefaults(cfg.GigaChat.Temperature, cfg.GigaChat.MaxTokens),
		gigachat.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.GigaChat.ChatTimeoutSecs) * time.Second,
		}),
		gigachat.WithAuthHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.GigaChat.TokenTimeoutSecs) * time.Second,
		}),
	)

	multi, err := resolver.Build(cfg.Resolver, nil, nil)
	if err != nil {
		return nil, err
	}

	service := outfit.NewService(chat, multi, scorer.New(cfg.Scorer), *cfg)
	return &app{service: service}, nil
}
