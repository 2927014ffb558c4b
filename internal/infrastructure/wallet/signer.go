package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"honeyfarmers/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrSigningUnavailable is returned by Transact when no signer is configured.
var ErrSigningUnavailable = errors.New("transaction signing is not available")

// signRequest is the body posted to the remote signer.
type signRequest struct {
	ChainID  string          `json:"chainId"`
	Endpoint string          `json:"endpoint"`
	Actions  []entity.Action `json:"actions"`
}

// signResponse accepts both the signer's own field name and the node's push_transaction shape.
type signResponse struct {
	TransactionID     string `json:"transactionId"`
	NodeTransactionID string `json:"transaction_id"`
	Error             string `json:"error"`
	Message           string `json:"message"`
}

// Signer forwards actions to a remote signing service that signs and broadcasts them.
type Signer struct {
	client  *fasthttp.Client
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSigner creates a signer client. It returns nil when url is empty.
func NewSigner(url string, timeout time.Duration, logger *zap.Logger) *Signer {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	return &Signer{
		client:  &fasthttp.Client{Name: "honeyfarmers"},
		url:     url,
		timeout: timeout,
		logger:  logger.Named("Signer"),
	}
}

// Push sends actions for signing and broadcasting through endpoint and returns the
// transaction id. Signer rejections are returned with the signer's message.
func (s *Signer) Push(ctx context.Context, chainID, endpoint string, actions []entity.Action) (string, error) {
	if s == nil {
		return "", ErrSigningUnavailable
	}

	payload, err := json.Marshal(signRequest{ChainID: chainID, Endpoint: endpoint, Actions: actions})
	if err != nil {
		return "", fmt.Errorf("failed to encode sign request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(s.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(payload)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	s.logger.Debug("Sending actions to signer", zap.Int("actions", len(actions)), zap.String("endpoint", endpoint))

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if deadline, ok := ctx.Deadline(); ok {
		err = s.client.DoDeadline(req, resp, deadline)
	} else {
		err = s.client.DoTimeout(req, resp, s.timeout)
	}
	if err != nil {
		s.logger.Error("Signer request failed", zap.Error(err))
		return "", fmt.Errorf("failed to reach signer: %w", err)
	}

	var out signResponse
	decodeErr := json.Unmarshal(resp.Body(), &out)

	if resp.StatusCode() != fasthttp.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = out.Message
		}
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(resp.Body()))
		}
		if msg == "" {
			msg = fmt.Sprintf("signer returned status %d", resp.StatusCode())
		}
		s.logger.Warn("Signer rejected transaction", zap.Int("status", resp.StatusCode()), zap.String("message", msg))
		return "", errors.New(msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode signer response: %w", decodeErr)
	}

	id := out.TransactionID
	if id == "" {
		id = out.NodeTransactionID
	}
	if id == "" {
		return "", fmt.Errorf("signer response carries no transaction id")
	}
	return id, nil
}
