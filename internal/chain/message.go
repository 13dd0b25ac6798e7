package chain

import "fmt"

// formatLevelUpMessage builds the level-up notification text, dollar
// amounts at 2 decimal places.
func formatLevelUpMessage(chainID string, from, to int, pnl float64, ordersClosed, ordersPlaced int, nextTarget, nextReduction float64) string {
	return fmt.Sprintf(
		"🔁 PROFIT BOOKING LEVEL UP!\nChain: %s\nLevel: %d → %d\nProfit Booked: $%.2f\nOrders Closed: %d\nOrders Placed: %d\nNext Target: $%.2f\nSL Reduction: %.0f%%",
		chainID, from, to, pnl, ordersClosed, ordersPlaced, nextTarget, nextReduction,
	)
}
