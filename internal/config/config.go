package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	DefaultServerBaseURL = "http://localhost:4000"
	DefaultListenAddr    = ":8090"
	DefaultUserIDKey     = "chess_app_user_id"
)

type AppConfig struct {
	ServerBaseURL     string
	ListenAddr        string
	RedisURL          string
	UserIDKey         string
	ThemeFile         string
	MessagesDir       string
	StreamDialTimeout time.Duration
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ServerBaseURL:     DefaultServerBaseURL,
		ListenAddr:        DefaultListenAddr,
		UserIDKey:         DefaultUserIDKey,
		StreamDialTimeout: 10 * time.Second,
	}

	if v := strings.TrimSpace(os.Getenv("SERVER_BASE_URL")); v != "" {
		cfg.ServerBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("USER_ID_KEY")); v != "" {
		cfg.UserIDKey = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.ThemeFile = strings.TrimSpace(os.Getenv("BOARD_THEME_FILE"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("STREAM_DIAL_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("STREAM_DIAL_TIMEOUT: invalid duration %q", v)
		}
		cfg.StreamDialTimeout = d
	}

	u, err := url.Parse(cfg.ServerBaseURL)
	if err != nil || u.Host == "" {
		return nil, errors.New("SERVER_BASE_URL must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("SERVER_BASE_URL must use http or https")
	}

	return cfg, nil
}
