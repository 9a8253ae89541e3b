// Package payments предоставляет клиент платёжного шлюза для создания Pix-платежей.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/rankingdbv/ranking-system/internal/validation"
)

// Client инкапсулирует HTTP-взаимодействие с платёжным шлюзом.
// Вызовы шлюза выполняются вне транзакций БД.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Customer описывает плательщика. TaxID — CPF плательщика.
type Customer struct {
	Name  string
	Email string
	TaxID string
}

// PixCharge описывает созданный Pix-платёж с QR-кодом.
type PixCharge struct {
	ReferenceID   string
	AmountCents   int64
	QRCodeImage   string
	QRCodePayload string
	ExpiresAt     time.Time
}

type chargeRequest struct {
	ReferenceID string          `json:"reference_id"`
	Customer    customerPayload `json:"customer"`
	QRCodes     []qrCodeRequest `json:"qr_codes"`
}

type customerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	TaxID string `json:"tax_id"`
}

type qrCodeRequest struct {
	Amount         amountPayload `json:"amount"`
	ExpirationDate string        `json:"expiration_date"`
}

type amountPayload struct {
	Value int64 `json:"value"`
}

type chargeResponse struct {
	QRCodes []struct {
		Text  string `json:"text"`
		Links []struct {
			Media string `json:"media"`
			Href  string `json:"href"`
		} `json:"links"`
	} `json:"qr_codes"`
}

// NewClient создаёт HTTP-клиент платёжного шлюза с ретраями на сетевые сбои.
func NewClient(baseURL, token string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: rc.StandardClient(),
	}
}

// CreatePixCharge создаёт Pix-платёж на указанную сумму в сентаво.
// QR-код действует 24 часа.
func (c *Client) CreatePixCharge(ctx context.Context, referenceID string, amountCents int64, customer Customer) (*PixCharge, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("payment client not configured")
	}

	if amountCents <= 0 {
		return nil, fmt.Errorf("charge amount must be positive")
	}

	if !validation.IsValidCPF(customer.TaxID) {
		return nil, fmt.Errorf("invalid customer tax id")
	}

	expiresAt := time.Now().Add(24 * time.Hour)

	payload := chargeRequest{
		ReferenceID: referenceID,
		Customer: customerPayload{
			Name:  customer.Name,
			Email: customer.Email,
			TaxID: customer.TaxID,
		},
		QRCodes: []qrCodeRequest{
			{
				Amount:         amountPayload{Value: amountCents},
				ExpirationDate: expiresAt.Format(time.RFC3339),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal charge: %w", err)
	}

	url := c.baseURL + "/orders"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-version", "4.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(result.QRCodes) == 0 {
		return nil, fmt.Errorf("no qr code in response")
	}

	qr := result.QRCodes[0]

	var imageURL string
	for _, l := range qr.Links {
		if l.Media == "image/png" {
			imageURL = l.Href
			break
		}
	}

	return &PixCharge{
		ReferenceID:   referenceID,
		AmountCents:   amountCents,
		QRCodeImage:   imageURL,
		QRCodePayload: qr.Text,
		ExpiresAt:     expiresAt,
	}, nil
}
