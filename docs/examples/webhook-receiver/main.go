// Shelfmark Webhook Receiver Example
//
// This is a minimal example of how to receive and verify Shelfmark
// loan lifecycle webhooks.
//
// Usage:
//
//	export SHELFMARK_WEBHOOK_SECRET="the secret returned at registration"
//	go run main.go
//
// Then register a webhook endpoint pointing at https://your-server/webhook.

package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"
)

// LoanEvent represents the webhook payload for loan lifecycle events.
type LoanEvent struct {
	EventType string    `json:"event_type"` // loan.checked_out | loan.returned
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      LoanData  `json:"data"`
}

type LoanData struct {
	LoanID     string `json:"loan_id"`
	BookID     string `json:"book_id"`
	UserID     string `json:"user_id"`
	DueDate    string `json:"due_date,omitempty"`
	ReturnDate string `json:"return_date,omitempty"`
}

func main() {
	secret := os.Getenv("SHELFMARK_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("SHELFMARK_WEBHOOK_SECRET environment variable is required")
	}

	http.HandleFunc("/webhook", webhookHandler(secret))
	http.HandleFunc("/health", healthHandler)

	log.Println("Starting webhook receiver on :9000")
	log.Println("Endpoint: http://localhost:9000/webhook")
	log.Fatal(http.ListenAndServe(":9000", nil))
}

func webhookHandler(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Read body
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("Error reading body: %v", err)
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		signature := r.Header.Get("X-Shelfmark-Signature")
		timestamp := r.Header.Get("X-Shelfmark-Timestamp")
		if signature == "" || timestamp == "" {
			log.Println("Missing signature headers")
			http.Error(w, "Missing signature", http.StatusUnauthorized)
			return
		}

		if !verifySignature(signature, timestamp, body, secret) {
			log.Println("Invalid signature")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		// Parse event
		var event LoanEvent
		if err := json.Unmarshal(body, &event); err != nil {
			log.Printf("Error parsing JSON: %v", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		// Process the event. Deliveries retry, so dedupe on EventID.
		log.Printf("✓ Received %s (delivery %s)", event.EventType, r.Header.Get("X-Shelfmark-Delivery-Id"))
		log.Printf("  Event ID: %s", event.EventID)
		log.Printf("  Loan:     %s", event.Data.LoanID)
		log.Printf("  Book:     %s", event.Data.BookID)
		log.Printf("  Borrower: %s", event.Data.UserID)

		// Respond with 200 OK
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "received"})
	}
}

// verifySignature verifies the HMAC-SHA256 signature from Shelfmark.
//
// The signed payload is "{timestamp}.{body}" where timestamp is the
// X-Shelfmark-Timestamp header value in unix seconds.
func verifySignature(signature, timestamp string, body []byte, secret string) bool {
	// Check timestamp (±5 min tolerance)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if math.Abs(float64(time.Now().Unix()-ts)) > 300 {
		log.Println("Signature timestamp too old or in future")
		return false
	}

	// Compute expected signature
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison
	return hmac.Equal([]byte(signature), []byte(expected))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
