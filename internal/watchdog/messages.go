package watchdog

import (
	"fmt"
	"time"
)

// The self-monitoring messages below are MarkdownV2 literals; they embed only
// integers, so no runtime escaping is needed.

func heartbeatMessage(uptime time.Duration, events uint64) string {
	h, m := uptimeParts(uptime)
	return fmt.Sprintf(
		"💓 *Health Check*\n\n"+
			"✅ System: Online\n"+
			"⏰ Uptime: %d hours %d minutes\n"+
			"📊 Events processed: %d\n"+
			"🔔 Status: Monitoring active",
		h, m, events)
}

func silenceMessage(threshold, uptime time.Duration) string {
	h, m := uptimeParts(uptime)
	return fmt.Sprintf(
		"⚠️ *Event Silence Alert*\n\n"+
			"🔕 No dispute events received for %d hours\n"+
			"⏰ System uptime: %d hours %d minutes\n"+
			"🔍 Please check:\n"+
			"• Dispute daemon status\n"+
			"• Relay connections\n"+
			"• Network connectivity",
		int(threshold.Hours()), h, m)
}

func connectivityMessage(failed, connected int) string {
	return fmt.Sprintf(
		"🔌 *Relay Connection Alert*\n\n"+
			"⚠️ Disconnected relays: %d\n"+
			"✅ Connected relays: %d\n"+
			"🔄 Attempting reconnection\\.\\.\\.",
		failed, connected)
}

func uptimeParts(uptime time.Duration) (hours, minutes int) {
	secs := int(uptime.Seconds())
	return secs / 3600, (secs % 3600) / 60
}
