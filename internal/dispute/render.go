package dispute

import (
	"fmt"

	"github.com/disputewatch/disputewatch/internal/markdown"
)

// RenderMessage produces the MarkdownV2 alert text for ev. One fixed template
// exists per recognized status plus a generic fallback. The dispute ID is
// rendered as an inline code span with code-span escaping; every other
// embedded value gets the full escape.
func RenderMessage(ev Event) string {
	id := markdown.EscapeCode(ev.ID)
	ts := markdown.Escape(markdown.Timestamp(ev.CreatedAt))

	switch ev.Status {
	case StatusInitiated:
		return fmt.Sprintf(
			"🚨 *NEW DISPUTE*\n\n"+
				"📋 *Dispute ID:* `%s`\n"+
				"👤 *Initiated by:* %s\n"+
				"⏰ *Time:* %s\n\n"+
				"⚡ Please take this dispute in your admin client\\.",
			id, markdown.Escape(ev.Initiator), ts)
	case StatusInProgress:
		return fmt.Sprintf(
			"🔄 *DISPUTE IN PROGRESS*\n\n"+
				"📋 *Dispute ID:* `%s`\n"+
				"👨‍⚖️ *Status:* Taken by solver\n"+
				"⏰ *Time:* %s\n\n"+
				"ℹ️ Dispute is now being handled\\.",
			id, ts)
	case StatusSellerRefunded:
		return fmt.Sprintf(
			"💰 *DISPUTE RESOLVED*\n\n"+
				"📋 *Dispute ID:* `%s`\n"+
				"✅ *Resolution:* Seller refunded\n"+
				"⏰ *Time:* %s\n\n"+
				"✔️ Dispute closed: funds returned to seller\\.",
			id, ts)
	case StatusSettled:
		return fmt.Sprintf(
			"✅ *DISPUTE RESOLVED*\n\n"+
				"📋 *Dispute ID:* `%s`\n"+
				"💸 *Resolution:* Payment to buyer\n"+
				"⏰ *Time:* %s\n\n"+
				"✔️ Dispute closed: buyer receives payment\\.",
			id, ts)
	case StatusReleased:
		return fmt.Sprintf(
			"🔓 *DISPUTE RESOLVED*\n\n"+
				"📋 *Dispute ID:* `%s`\n"+
				"🤝 *Resolution:* Released by seller\n"+
				"⏰ *Time:* %s\n\n"+
				"✔️ Dispute closed: trade completed\\.",
			id, ts)
	default:
		return fmt.Sprintf(
			"📡 *DISPUTE STATUS UPDATE*\n\n"+
				"📋 *Dispute ID:* `%s`\n"+
				"📊 *Status:* %s\n"+
				"⏰ *Time:* %s\n\n"+
				"ℹ️ Status changed\\.",
			id, markdown.Escape(ev.Status), ts)
	}
}
