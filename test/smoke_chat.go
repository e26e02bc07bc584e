// Command smoke_chat exercises a running server end to end:
// health, a stateless question, then a short session conversation.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
)

const defaultBaseURL = "http://localhost:8080"

type sessionResponse struct {
	Token          string `json:"token"`
	ConversationID string `json:"conversation_id"`
}

type sendResponse struct {
	Reply struct {
		ID   int64  `json:"id"`
		Text string `json:"text"`
	} `json:"reply"`
}

func main() {
	baseURL := defaultBaseURL
	if v := os.Getenv("SHG_ASSISTANT_URL"); v != "" {
		baseURL = v
	}

	fmt.Println("🚀 Starting chat smoke test against", baseURL)

	if err := getJSON(baseURL+"/api/v1/health", nil); err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	fmt.Println("✅ Server is healthy")

	var answer struct {
		Response string `json:"response"`
	}
	if err := postJSON(baseURL+"/api/v1/assistant/ask", "", map[string]string{"message": "What is a Self Help Group?"}, http.StatusOK, &answer); err != nil {
		log.Fatalf("Ask failed: %v", err)
	}
	fmt.Printf("✅ Ask: %s\n", answer.Response)

	var session sessionResponse
	if err := postJSON(baseURL+"/api/v1/sessions", "", nil, http.StatusCreated, &session); err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	fmt.Printf("✅ Session started: %s\n", session.ConversationID)

	for _, q := range []string{"How do SHG loans work?", "How can I volunteer?"} {
		var sent sendResponse
		if err := postJSON(baseURL+"/api/v1/chat/messages", session.Token, map[string]string{"message": q}, http.StatusOK, &sent); err != nil {
			log.Fatalf("Failed to send message: %v", err)
		}
		fmt.Printf("✅ #%d %s\n", sent.Reply.ID, sent.Reply.Text)
	}

	fmt.Println("✅ Chat smoke test completed successfully!")
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func postJSON(url, token string, body interface{}, wantStatus int, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
