package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/alejandrodnm/pixelwatch/internal/domain"
	"github.com/alejandrodnm/pixelwatch/internal/indexer"
)

// printReport imprime el historial completo y las estadísticas de ventas de
// un pixel, para inspección rápida desde la terminal.
func printReport(ctx context.Context, queries *indexer.Queries, pixel int) error {
	history, err := queries.PriceHistory(ctx, pixel)
	if err != nil {
		return fmt.Errorf("report: history: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\n=== pixel %d (%d,%d) — %d events ===\n\n",
		pixel, pixel%domain.GridWidth, pixel/domain.GridWidth, len(history))

	if len(history) == 0 {
		fmt.Fprintln(os.Stdout, "no price history recorded")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Time", "Type", "Price (wei)", "From", "To", "Block", "Tx")

	for i, e := range history {
		table.Append(
			fmt.Sprintf("%d", i+1),
			time.UnixMilli(e.Timestamp).UTC().Format("2006-01-02 15:04:05"),
			string(e.EventType),
			e.PriceWei.String(),
			truncate(e.From, 12),
			truncate(e.To, 12),
			fmt.Sprintf("%d", e.Block),
			truncate(e.TxHash, 12),
		)
	}

	table.Render()

	stats, err := queries.PriceStats(ctx, pixel)
	if err != nil {
		return fmt.Errorf("report: stats: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\nsales: %d  min: %s  max: %s  avg: %s\n",
		stats.TotalSales, stats.MinPrice, stats.MaxPrice, stats.AvgPrice)

	if latest, err := queries.LatestPrice(ctx, pixel); err == nil && latest != nil {
		fmt.Fprintf(os.Stdout, "latest: %s (%s) at %s\n",
			latest.PriceWei, latest.EventType,
			time.UnixMilli(latest.Timestamp).UTC().Format(time.RFC3339))
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
