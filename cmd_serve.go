package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpadapter "github.com/satriahrh/shg-assistant/adapters/http"
	"github.com/satriahrh/shg-assistant/adapters/message_broker"
	"github.com/satriahrh/shg-assistant/adapters/websocket"
	"github.com/satriahrh/shg-assistant/usecase"
	"github.com/satriahrh/shg-assistant/utils/log"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	gateway := newGateway(cfg)
	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	chat := usecase.NewChatService(gateway, broker)
	wsServer := websocket.NewServer(chat, broker)
	handler := httpadapter.NewChatHandler(gateway, chat, httpadapter.NewSessions(cfg.SessionSecret))
	e := httpadapter.NewServer(handler, wsServer.Handler)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.With(zap.String("addr", cfg.Address()), zap.String("mode", string(gateway.Mode())))
	go func() {
		logger.Info("Starting server")
		logger.Info("Available endpoints: " +
			"GET /api/v1/health, POST /api/v1/assistant/ask, GET /api/v1/assistant/overview, " +
			"POST /api/v1/assistant/guidance, POST /api/v1/sessions, POST|GET /api/v1/chat/messages, GET /ws")
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	wsServer.Shutdown(shutdownCtx)
	return e.Shutdown(shutdownCtx)
}
