package auction

import (
	model "buyme/internal/models"
	"buyme/utils"

	"github.com/shopspring/decimal"
)

// Notifier is the outbound notification hook. Implementations are
// best-effort collaborators: calls must not block and their failures are
// never surfaced to the bidding or settlement paths.
type Notifier interface {
	// NotifyOutbid is emitted each time a top bidder is displaced, whether
	// by a human bid or by an automatic counter-bid.
	NotifyOutbid(auctionID string, displaced model.Bidder, newAmount decimal.Decimal)

	// NotifyAuctionClosed is emitted once per auction settlement.
	NotifyAuctionClosed(snapshot model.AuctionSnapshot)
}

// LogNotifier writes notification events to the structured log. It stands
// in for the email/DM delivery collaborator, which lives outside the core.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) NotifyOutbid(auctionID string, displaced model.Bidder, newAmount decimal.Decimal) {
	utils.Info("outbid notification", map[string]any{
		"auction_id": auctionID,
		"user_id":    displaced.UserID,
		"new_amount": newAmount.String(),
	})
}

func (n *LogNotifier) NotifyAuctionClosed(snapshot model.AuctionSnapshot) {
	fields := map[string]any{
		"auction_id": snapshot.AuctionID,
		"status":     string(snapshot.Status),
	}
	if snapshot.WinnerID != nil {
		fields["winner_id"] = *snapshot.WinnerID
	}
	if snapshot.WinningBid != nil {
		fields["winning_bid"] = snapshot.WinningBid.String()
	}
	utils.Info("auction closed notification", fields)
}
