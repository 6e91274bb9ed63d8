package logging

import (
	"errors"

	"github.com/okamoto/ackchat/pkg/protocol"
	"go.uber.org/zap"
)

// Failure logs the error a binary is about to exit with. Lifecycle errors
// raised before the exchange loop are reported as setup failures, the rest
// as session failures.
func Failure(logger *zap.Logger, err error) {
	var lifecycleErr *protocol.Error
	if !errors.As(err, &lifecycleErr) {
		logger.Error("unexpected failure", zap.Error(err))
		return
	}

	msg := "session failed"
	if lifecycleErr.Kind.Setup() {
		msg = "setup failed"
	}
	logger.Error(msg,
		zap.Stringer("kind", lifecycleErr.Kind),
		zap.String("addr", lifecycleErr.Addr),
		zap.Error(err))
}
