// Package proxy forwards recommendation requests to the upstream product API.
// It keeps no state and never touches the wallet database.
package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

type Recommender struct {
	upstreamURL string
	userID      string
	secretKey   string
	client      *http.Client
}

func New(upstreamURL, userID, secretKey string) *Recommender {
	return &Recommender{
		upstreamURL: upstreamURL,
		userID:      userID,
		secretKey:   secretKey,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *Recommender) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respond(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"server":    "wallet-proxy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	case http.MethodPost:
		p.forward(w, r)
	default:
		respond(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (p *Recommender) forward(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "unable to read request"})
		return
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, p.upstreamURL, bytes.NewReader(body))
	if err != nil {
		p.fail(w, err)
		return
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("country-code", "vn")
	req.Header.Set("user-id", p.userID)
	req.Header.Set("user-secret-key", p.secretKey)
	req.Header.Set("xb-language", "vi-VN")
	req.Header.Set("Referer", "https://xworld.info/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		p.fail(w, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.fail(w, &upstreamError{status: resp.StatusCode})
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		p.fail(w, err)
		return
	}
	payload["_proxy_info"] = map[string]string{
		"server":    "wallet",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    "success",
	}
	respond(w, http.StatusOK, payload)
}

func (p *Recommender) fail(w http.ResponseWriter, err error) {
	respond(w, http.StatusInternalServerError, map[string]string{
		"error":     "proxy failed",
		"message":   err.Error(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type upstreamError struct {
	status int
}

func (e *upstreamError) Error() string {
	return "upstream returned " + http.StatusText(e.status)
}

func respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
