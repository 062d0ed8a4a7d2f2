package mesh

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sculpt/internal/logger"
)

// assertf reports an invariant violation. Builds tagged meshdebug panic;
// release builds log the violation and let the caller reject the operation.
func assertf(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if debugAsserts {
		panic("mesh: " + msg)
	}
	logger.Warn("mesh invariant violated", zap.String("detail", msg))
	return false
}
