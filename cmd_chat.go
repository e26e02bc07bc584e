package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	httpadapter "github.com/satriahrh/shg-assistant/adapters/http"
	wsadapter "github.com/satriahrh/shg-assistant/adapters/websocket"
)

var chatServerURL string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running server over WebSocket",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServerURL, "url", "http://localhost:8080", "server base URL")
}

func startSession(baseURL string) (httpadapter.SessionResponse, error) {
	var session httpadapter.SessionResponse

	resp, err := http.Post(baseURL+"/api/v1/sessions", "application/json", nil)
	if err != nil {
		return session, fmt.Errorf("starting session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return session, fmt.Errorf("starting session: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return session, fmt.Errorf("decoding session: %w", err)
	}
	return session, nil
}

func websocketURL(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

func runChat(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	session, err := startSession(chatServerURL)
	if err != nil {
		return err
	}
	wsURL, err := websocketURL(chatServerURL, session.Token)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connecting to server: %w", err)
	}
	defer conn.Close()

	// Print incoming frames in a separate goroutine
	go func() {
		for {
			var frame wsadapter.Frame
			if err := conn.ReadJSON(&frame); err != nil {
				fmt.Fprintln(out, "connection closed:", err)
				return
			}
			switch {
			case frame.Error != nil:
				fmt.Fprintf(out, "! %s\n", frame.Error.Message)
			case frame.Message != nil && frame.Message.Sender != "user":
				fmt.Fprintf(out, "\n[%s] %s\n> ", frame.Message.Timestamp.Format("15:04"), frame.Message.Text)
			}
		}
	}()

	// Set up a signal handler to gracefully shut down on interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		conn.Close()
		os.Exit(0)
	}()

	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprintln(out, "Ask about Self Help Groups (type 'exit' to quit):")
	for {
		text, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
		if text == "exit" {
			return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		}
		if text == "" {
			fmt.Fprint(out, "> ")
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
	}
}
