package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa el costo promedio ponderado (servicio de dominio).
// NuevoCosto = (CostoTotalActual + CantEntrada * CostoEntrada) / (StockActual + CantEntrada)
// Si el denominador no es positivo se usa el costo de la entrada.
func CostCalculator(stockActual, costoTotalActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return costoEntrada
	}
	num := costoTotalActual.Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}
