package broker

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RESTConfig configures a signed REST broker.
type RESTConfig struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Passphrase string
}

// apiResponse is the generic envelope the broker's REST API wraps
// every response in.
type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// RESTBroker is a signed, rate-limited HTTP implementation of Client.
// Requests are HMAC-SHA256 signed; public (price) and private
// (balance/order) endpoints keep separate rate limiters.
type RESTBroker struct {
	client         *resty.Client
	apiKey         string
	apiSecret      string
	passphrase     string
	logger         *logrus.Logger
	publicLimiter  *rate.Limiter
	privateLimiter *rate.Limiter
}

func NewRESTBroker(cfg RESTConfig, logger *logrus.Logger) *RESTBroker {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(5 * time.Second)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(250 * time.Millisecond)

	return &RESTBroker{
		client:         client,
		apiKey:         cfg.APIKey,
		apiSecret:      cfg.APISecret,
		passphrase:     cfg.Passphrase,
		logger:         logger,
		publicLimiter:  rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		privateLimiter: rate.NewLimiter(rate.Every(222*time.Millisecond), 4),
	}
}

func (c *RESTBroker) sign(timestamp, method, endpoint, body string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(timestamp + method + endpoint + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *RESTBroker) authHeaders(req *resty.Request, method, endpoint, body string) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.SetHeaders(map[string]string{
		"X-API-KEY":        c.apiKey,
		"X-API-SIGN":       c.sign(timestamp, method, endpoint, body),
		"X-API-TIMESTAMP":  timestamp,
		"X-API-PASSPHRASE": c.passphrase,
		"Content-Type":     "application/json",
	})
}

func (c *RESTBroker) waitPublic(ctx context.Context) error {
	return c.publicLimiter.Wait(ctx)
}

func (c *RESTBroker) waitPrivate(ctx context.Context) error {
	return c.privateLimiter.Wait(ctx)
}

func (c *RESTBroker) GetPrice(ctx context.Context, symbol string) (float64, error) {
	if err := c.waitPublic(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait for price: %w", err)
	}
	endpoint := "/api/v1/market/price"
	resp, err := c.client.R().SetContext(ctx).SetQueryParam("symbol", symbol).Get(endpoint)
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Error("failed to fetch price")
		return 0, fmt.Errorf("fetching price for %s: %w", symbol, err)
	}

	var env apiResponse
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return 0, fmt.Errorf("unmarshalling price response: %w", err)
	}
	if env.Code != "200000" {
		return 0, fmt.Errorf("broker error fetching price: %s", env.Msg)
	}
	var payload struct {
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return 0, fmt.Errorf("unmarshalling price payload: %w", err)
	}
	return payload.Price, nil
}

func (c *RESTBroker) GetBalance(ctx context.Context) (float64, error) {
	if err := c.waitPrivate(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait for balance: %w", err)
	}
	endpoint := "/api/v1/accounts/balance"
	req := c.client.R().SetContext(ctx)
	c.authHeaders(req, "GET", endpoint, "")

	resp, err := req.Get(endpoint)
	if err != nil {
		c.logger.WithError(err).Error("failed to fetch balance")
		return 0, fmt.Errorf("fetching balance: %w", err)
	}
	var env apiResponse
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return 0, fmt.Errorf("unmarshalling balance response: %w", err)
	}
	if env.Code != "200000" {
		return 0, fmt.Errorf("broker error fetching balance: %s", env.Msg)
	}
	var payload struct {
		Balance float64 `json:"balance"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return 0, fmt.Errorf("unmarshalling balance payload: %w", err)
	}
	return payload.Balance, nil
}

type orderRequest struct {
	Symbol  string  `json:"symbol"`
	Side    string  `json:"side"`
	Lot     float64 `json:"lot"`
	Price   float64 `json:"price"`
	SL      float64 `json:"stop_loss"`
	TP      float64 `json:"take_profit"`
	Comment string  `json:"comment"`
}

func (c *RESTBroker) PlaceOrder(ctx context.Context, symbol, side string, lot, price, sl, tp float64, comment string) (string, error) {
	if err := c.waitPrivate(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait for place order: %w", err)
	}
	endpoint := "/api/v1/orders"
	body, err := json.Marshal(orderRequest{Symbol: symbol, Side: side, Lot: lot, Price: price, SL: sl, TP: tp, Comment: comment})
	if err != nil {
		return "", fmt.Errorf("marshalling order request: %w", err)
	}

	req := c.client.R().SetContext(ctx).SetBody(body)
	c.authHeaders(req, "POST", endpoint, string(body))

	resp, err := req.Post(endpoint)
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Error("failed to place order")
		return "", fmt.Errorf("placing order for %s: %w", symbol, err)
	}
	var env apiResponse
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return "", fmt.Errorf("unmarshalling place order response: %w", err)
	}
	if env.Code != "200000" {
		return "", fmt.Errorf("broker rejected order: %s", env.Msg)
	}
	var payload struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return "", fmt.Errorf("unmarshalling place order payload: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"order_id": payload.OrderID,
		"symbol":   symbol,
		"side":     side,
		"lot":      lot,
	}).Info("order placed")
	return payload.OrderID, nil
}

func (c *RESTBroker) CloseOrder(ctx context.Context, orderID string, price float64) (bool, error) {
	if err := c.waitPrivate(ctx); err != nil {
		return false, fmt.Errorf("rate limit wait for close order: %w", err)
	}
	endpoint := fmt.Sprintf("/api/v1/orders/%s/close", orderID)
	body, _ := json.Marshal(map[string]float64{"price": price})

	req := c.client.R().SetContext(ctx).SetBody(body)
	c.authHeaders(req, "POST", endpoint, string(body))

	resp, err := req.Post(endpoint)
	if err != nil {
		c.logger.WithError(err).WithField("order_id", orderID).Error("failed to close order")
		return false, fmt.Errorf("closing order %s: %w", orderID, err)
	}
	var env apiResponse
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return false, fmt.Errorf("unmarshalling close order response: %w", err)
	}
	if env.Code != "200000" {
		return false, fmt.Errorf("broker rejected close: %s", env.Msg)
	}

	c.logger.WithField("order_id", orderID).Info("order closed")
	return true, nil
}
