package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

// docNoDigits ancho mínimo del correlativo: PREFIJO-000001.
const docNoDigits = 6

// FormatDocNo arma el número de documento "{PREFIJO}-{n:06d}".
func FormatDocNo(prefix string, n int64) string {
	return fmt.Sprintf("%s-%0*d", prefix, docNoDigits, n)
}

// ParseDocNo extrae el correlativo final de un número con el prefijo dado.
// Devuelve false si el número no tiene ese prefijo o el sufijo no es numérico.
func ParseDocNo(prefix, docNo string) (int64, bool) {
	rest, ok := strings.CutPrefix(docNo, prefix+"-")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextDocNo siguiente número a partir del máximo existente (vacío si no hay ninguno).
// Un máximo no parseable reinicia en 1.
func NextDocNo(prefix, maxExisting string) string {
	n, ok := ParseDocNo(prefix, maxExisting)
	if !ok {
		return FormatDocNo(prefix, 1)
	}
	return FormatDocNo(prefix, n+1)
}

// MaxDocNo devuelve el número con mayor correlativo entre candidatos del mismo prefijo.
// Lo usan los stores que no pueden ordenar numéricamente en la consulta.
func MaxDocNo(prefix string, docNos []string) string {
	var (
		best  string
		bestN int64 = -1
	)
	for _, d := range docNos {
		if n, ok := ParseDocNo(prefix, d); ok && n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
