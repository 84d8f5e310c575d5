package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/wasender/internal/config"
	"github.com/kursadbilgin/wasender/internal/domain"
	"github.com/kursadbilgin/wasender/internal/observability"
	"github.com/kursadbilgin/wasender/internal/provider"
	"github.com/kursadbilgin/wasender/internal/ratelimit"
	"github.com/kursadbilgin/wasender/internal/sender"
	"go.uber.org/zap"
)

func main() {
	var (
		to          = flag.String("to", "", "recipient phone number in E.164 format")
		text        = flag.String("text", "", "free-form text body (requires an open service window)")
		template    = flag.String("template", "", "template name to send instead of free-form text")
		language    = flag.String("lang", "en_US", "template language code")
		params      = flag.String("params", "", "comma-separated template body parameters")
		lastInbound = flag.String("last-inbound", "", "RFC 3339 timestamp of the recipient's last inbound message")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	client := resty.New()
	client.SetTimeout(cfg.RequestTimeout())

	graph, err := provider.NewGraphProviderWithClient(cfg.GraphBaseURL, cfg.AccessToken, client)
	if err != nil {
		logger.Fatal("provider initialization failed", zap.Error(err))
	}

	pacer, err := ratelimit.NewIntervalPacer(cfg.RatePerSec)
	if err != nil {
		logger.Fatal("pacer initialization failed", zap.Error(err))
	}

	snd, err := sender.NewSender(graph, pacer, cfg.MaxAttempts, cfg.BaseDelay(), logger)
	if err != nil {
		logger.Fatal("sender initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	snd.SetMetrics(metrics)
	if cfg.MetricsPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.MetricsPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	sendCtx, err := domain.NewSendContext(*to, cfg.PhoneNumberID, *lastInbound)
	if err != nil {
		logger.Fatal("invalid send inputs", zap.Error(err))
	}

	msg, err := buildMessage(*text, *template, *language, *params)
	if err != nil {
		logger.Fatal("invalid message", zap.Error(err))
	}

	request, err := domain.BuildRequest(sendCtx, msg, time.Now())
	if err != nil {
		if domain.IsWindowClosed(err) {
			logger.Fatal("service window closed, re-run with -template", zap.Error(err))
		}
		logger.Fatal("failed to build request", zap.Error(err))
	}

	response, err := snd.SendWithRetry(context.Background(), request)
	if err != nil {
		logger.Error("send failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("message sent",
		zap.String("recipient", sendCtx.Recipient.String()),
		zap.String("messageId", response.MessageID),
	)
}

func buildMessage(text, template, language, params string) (domain.OutboundMessage, error) {
	if template != "" {
		var parameters []string
		if strings.TrimSpace(params) != "" {
			parameters = strings.Split(params, ",")
		}
		return domain.NewTemplateMessage(template, language, parameters...), nil
	}
	if text != "" {
		return domain.NewTextMessage(text), nil
	}
	return domain.OutboundMessage{}, fmt.Errorf("%w: either -text or -template is required", domain.ErrValidation)
}
