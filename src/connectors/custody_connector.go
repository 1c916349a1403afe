// REST CLIENT FOR THE COLLATERAL CUSTODY / ESCROW SERVICE
// RESTY ONLY + INTERNAL RETRY
package connectors

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

const (
	// Default retry configuration
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

// APIResponse is the custody service envelope.
type APIResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type transferRequest struct {
	ReferenceID string `json:"reference_id"`
	Direction   string `json:"direction"` // "in" or "out"
	Owner       string `json:"owner"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
}

type payoutRequest struct {
	ReferenceID string `json:"reference_id"`
	PositionID  uint   `json:"position_id"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
}

// CustodyClient talks to the escrow service that actually moves collateral.
// Every call is synchronous; a non-success response must abort the whole
// ledger operation that triggered it.
type CustodyClient struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

func NewCustodyClient(apiKey, apiSecret, baseURL string) *CustodyClient {
	retryCount := defaultRetryAttempts - 1

	if baseURL == "" {
		baseURL = "http://localhost:9899"
		logger.Warnf("No custody base URL provided, using default: %s", baseURL)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &CustodyClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		http:      client,
	}
}

// sign produces the request signature header: HMAC-SHA256 over
// path + expiry + body, hex encoded.
func (c *CustodyClient) sign(path, expiry, body string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(path + expiry + body))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *CustodyClient) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal custody payload: %w", err)
	}

	expiry := strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10)

	var out APIResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-custody-access-key", c.apiKey).
		SetHeader("x-custody-request-expiry", expiry).
		SetHeader("x-custody-request-signature", c.sign(path, expiry, string(body))).
		SetBody(body).
		SetResult(&out).
		Post(path)

	if err != nil {
		logger.WithError(err).WithField("path", path).Error("custody request failed")
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("custody %s returned HTTP %d: %s", path, resp.StatusCode(), resp.String())
	}

	if out.Code != 0 {
		return fmt.Errorf("custody %s rejected: %s", path, GetErrorMsg(out.Code))
	}

	return nil
}

// newReferenceID builds a unique client reference for one custody transfer.
// Format: ll-<unix-nano>-<uuid>
func newReferenceID() string {
	return fmt.Sprintf("ll-%d-%s", time.Now().UnixNano(), uuid.NewString())
}

// TransferIn debits the owner's external custody on lock.
func (c *CustodyClient) TransferIn(ctx context.Context, owner, asset string, amount decimal.Decimal) error {
	ref := newReferenceID()

	logger.WithFields(map[string]interface{}{
		"op":     "TransferIn",
		"owner":  owner,
		"asset":  asset,
		"amount": amount.String(),
		"ref":    ref,
	}).Info("custody transfer in")

	return c.post(ctx, "/escrow/transfers", transferRequest{
		ReferenceID: ref,
		Direction:   "in",
		Owner:       owner,
		Asset:       asset,
		Amount:      amount.String(),
	})
}

// TransferOut releases unlocked collateral back to the owner's custody.
func (c *CustodyClient) TransferOut(ctx context.Context, owner, asset string, amount decimal.Decimal) error {
	ref := newReferenceID()

	logger.WithFields(map[string]interface{}{
		"op":     "TransferOut",
		"owner":  owner,
		"asset":  asset,
		"amount": amount.String(),
		"ref":    ref,
	}).Info("custody transfer out")

	return c.post(ctx, "/escrow/transfers", transferRequest{
		ReferenceID: ref,
		Direction:   "out",
		Owner:       owner,
		Asset:       asset,
		Amount:      amount.String(),
	})
}

// LiquidationPayout routes the remaining collateral of a liquidated position
// per the payout policy configured on the custody side.
func (c *CustodyClient) LiquidationPayout(ctx context.Context, positionID uint, asset string, amount decimal.Decimal) error {
	ref := newReferenceID()

	logger.WithFields(map[string]interface{}{
		"op":          "LiquidationPayout",
		"position_id": positionID,
		"asset":       asset,
		"amount":      amount.String(),
		"ref":         ref,
	}).Warn("custody liquidation payout")

	return c.post(ctx, "/escrow/payouts", payoutRequest{
		ReferenceID: ref,
		PositionID:  positionID,
		Asset:       asset,
		Amount:      amount.String(),
	})
}
