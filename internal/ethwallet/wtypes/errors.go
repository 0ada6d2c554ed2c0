package wtypes

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
)

// CodedError is a wallet error carrying an EIP-1193 / JSON-RPC code.
type CodedError struct {
	Code    int
	Message string
}

func (e *CodedError) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

func (e *CodedError) ErrorCode() int { return e.Code }

var ErrUserRejected = &CodedError{Code: constants.UserRejectedCode, Message: "user rejected the request"}

// ErrorCode extracts a wallet or JSON-RPC error code from err.
func ErrorCode(err error) (int, bool) {
	var coded rpc.Error
	if errors.As(err, &coded) {
		return coded.ErrorCode(), true
	}
	return 0, false
}

// IsUserRejection reports whether err means the user declined to sign.
func IsUserRejection(err error) bool {
	code, ok := ErrorCode(err)
	return ok && code == constants.UserRejectedCode
}
