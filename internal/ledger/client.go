package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

type rpcLogger struct{}

func (l rpcLogger) Printf(format string, args ...interface{}) {
	zap.S().Debugf(format, args...)
}

// NewClient dials the ledger node over HTTP with retrying transport.
// Transient transport failures are retried before they surface to callers.
func NewClient(url string, timeout int, debug bool) (*rpc.Client, error) {
	if len(url) == 0 {
		return nil, errors.New("bad call missing argument host")
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	if debug {
		retryClient.Logger = rpcLogger{}
	}
	retryClient.RetryMax = 3
	retryClient.HTTPClient.Timeout = time.Duration(timeout) * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	return rpc.DialOptions(ctx, url, rpc.WithHTTPClient(retryClient.StandardClient()))
}
