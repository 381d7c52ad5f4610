package notify

import (
	"net"
	"net/http"
	"time"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is the time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second
)

// Header names attached to every delivery.
const (
	HeaderSignature  = "X-Shelfmark-Signature"
	HeaderTimestamp  = "X-Shelfmark-Timestamp"
	HeaderDeliveryID = "X-Shelfmark-Delivery-Id"
)

const userAgent = "Shelfmark-Webhook/1.0"

// NewHTTPClient returns an HTTP client tuned for webhook delivery.
// Redirects are not followed.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func setDeliveryHeaders(req *http.Request, signature, timestamp, deliveryID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, signature)
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderDeliveryID, deliveryID)
	req.Header.Set("User-Agent", userAgent)
}
