package slim

import (
	"fmt"
	"time"
)

// elapsedMessage reports a duration at millisecond precision, never below 1ms.
func elapsedMessage(action string, elapsed time.Duration) string {
	return fmt.Sprintf("⏱️  %s completed in %s", action, max(elapsed.Round(time.Millisecond), time.Millisecond))
}

func (p *Processor) reportElapsed(action string, start time.Time) {
	p.status(infoStyle, elapsedMessage(action, time.Since(start)))
}
