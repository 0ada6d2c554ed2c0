package http

import "github.com/cockroachdb/errors"

const (
	APIPrefix       = "/api"
	MetricsPath     = "/metrics"
	MaxRequestBytes = 1 << 20
)

var (
	ErrBagLocked     = errors.New("bag is locked while a checkout is running")
	ErrAssetRequired = errors.New("asset address and tokenId are required")
	ErrNotPooled     = errors.New("asset has no pool parameters")
	ErrUnpriceable   = errors.New("pool cannot price an item at this position")
)
