package statsdc

import (
	"strconv"
)

// Wire markers for the statsd metric types.
const (
	markCounter = "c"
	markTimer   = "ms"
	markGauge   = "g"
	markSet     = "s"
)

// appendHead writes "<prefix><key>:" onto buf. The prefix already
// carries its trailing dot when one is set, so an empty prefix
// produces a bare key.
func appendHead(buf []byte, prefix, key string) []byte {
	buf = append(buf, prefix...)
	buf = append(buf, key...)
	buf = append(buf, ':')
	return buf
}

// appendTail writes "|<mark>" and, for sampled emissions, the
// "|@<rate>" suffix. The rate is formatted as the shortest decimal
// representation which parses back to the same float64, never in
// scientific notation.
func appendTail(buf []byte, mark string, rate float64) []byte {
	buf = append(buf, '|')
	buf = append(buf, mark...)
	if rate > 0 && rate < 1 {
		buf = append(buf, "|@"...)
		buf = strconv.AppendFloat(buf, rate, 'f', -1, 64)
	}
	return buf
}

// appendGauge writes the gauge value with exactly 3 fractional digits.
func appendGauge(buf []byte, value float64) []byte {
	return strconv.AppendFloat(buf, value, 'f', 3, 64)
}
