package broadcast

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/torrejonv/ts-sdk/chainhash"
)

// arcSubmitRequest is the payload posted to an ARC-style overlay
// transaction-submission endpoint.
type arcSubmitRequest struct {
	RawTx string `json:"rawTx"`
}

// arcSubmitResponse is the service's JSON receipt. Status follows ARC's
// convention: "SUCCESS" on acceptance, any other string names a
// rejection reason the client maps onto FailureCode.
type arcSubmitResponse struct {
	TxID          string `json:"txid"`
	Status        string `json:"txStatus"`
	ExtraInfo     string `json:"extraInfo"`
	HTTPErrorCode int    `json:"httpErrorCode"`
}

// ARCBroadcaster posts a raw transaction to a single ARC-style overlay
// endpoint and maps its JSON receipt onto the FailureCode table.
type ARCBroadcaster struct {
	URL    string
	APIKey string
	Client *http.Client
}

// NewARCBroadcaster returns a broadcaster pointed at url, with a
// connection-pooled client matching the RPC client's timeout defaults.
func NewARCBroadcaster(url, apiKey string) *ARCBroadcaster {
	return &ARCBroadcaster{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// DefaultBroadcaster is the well-known fallback instance a Transaction
// uses when Broadcast is called with no explicit Broadcaster. It is a
// package-level variable initialised once with a fixed URL and no API
// key; nothing in this module reassigns it.
var DefaultBroadcaster = NewARCBroadcaster("https://arc.taal.com/v1/tx", "")

func (b *ARCBroadcaster) Broadcast(ctx context.Context, rawTx []byte) (Result, error) {
	reqBody := arcSubmitRequest{RawTx: hex.EncodeToString(rawTx)}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, fmt.Errorf("broadcast: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("broadcast: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var arcResp arcSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&arcResp); err != nil {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Result{}, fmt.Errorf("broadcast: decode response: %w (body: %s)", err, respBody)
	}

	return mapARCResponse(resp.StatusCode, arcResp), nil
}

func mapARCResponse(httpStatus int, resp arcSubmitResponse) Result {
	if httpStatus >= 200 && httpStatus < 300 && resp.Status == "SUCCESS" {
		txid, err := chainhash.NewFromReversedHex(resp.TxID)
		if err != nil {
			return Result{Failure: &Failure{Code: Unknown, Description: "unparseable txid: " + resp.TxID}}
		}
		return Result{Success: &Success{TxID: txid, Message: resp.ExtraInfo}}
	}
	return Result{Failure: &Failure{Code: classifyARCStatus(httpStatus, resp.Status), Description: resp.ExtraInfo}}
}

func classifyARCStatus(httpStatus int, status string) FailureCode {
	switch status {
	case "DOUBLE_SPEND_ATTEMPTED", "SEEN_IN_ORPHAN_MEMPOOL":
		return DoubleSpend
	case "REJECTED":
		return RejectedByNetwork
	case "INVALID":
		return InvalidTx
	}
	switch {
	case httpStatus == 0 || httpStatus >= 500:
		return ServiceUnavailable
	case httpStatus >= 400:
		return InvalidTx
	default:
		return Unknown
	}
}
