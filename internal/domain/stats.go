package domain

import "math/big"

// PriceStats resume las ventas de un pixel. Los precios son exactos
// (aritmética big.Int, sin redondeo más allá del truncado de la media).
type PriceStats struct {
	MinPrice   *big.Int
	MaxPrice   *big.Int
	AvgPrice   *big.Int // floor(sum / count)
	TotalSales int
}

// ZeroStats es el estado definido para un pixel sin ventas: {0,0,0,0}.
// No es un error — un pixel nunca vendido simplemente no tiene historial.
func ZeroStats() PriceStats {
	return PriceStats{
		MinPrice: new(big.Int),
		MaxPrice: new(big.Int),
		AvgPrice: new(big.Int),
	}
}

// ComputeStats calcula min/max/media sobre los eventos de tipo sale de la
// secuencia dada. Eventos de otros tipos se ignoran. Con cero ventas devuelve
// ZeroStats.
func ComputeStats(events []PriceChangeEvent) PriceStats {
	var (
		min, max *big.Int
		sum      = new(big.Int)
		count    int
	)

	for _, e := range events {
		if e.EventType != EventSale || e.PriceWei == nil {
			continue
		}
		if min == nil || e.PriceWei.Cmp(min) < 0 {
			min = e.PriceWei
		}
		if max == nil || e.PriceWei.Cmp(max) > 0 {
			max = e.PriceWei
		}
		sum.Add(sum, e.PriceWei)
		count++
	}

	if count == 0 {
		return ZeroStats()
	}

	return PriceStats{
		MinPrice:   new(big.Int).Set(min),
		MaxPrice:   new(big.Int).Set(max),
		AvgPrice:   new(big.Int).Quo(sum, big.NewInt(int64(count))),
		TotalSales: count,
	}
}
