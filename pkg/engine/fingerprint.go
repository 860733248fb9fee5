package engine

import (
	"hash/fnv"
	"math"
	"strconv"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// fingerprintBars is how many trailing bars participate in the cache key.
const fingerprintBars = 5

// Fingerprint derives the cache key for a bar series and its effective
// options: an FNV-64a digest over the last five bars, the series length,
// and a canonical encoding of every option field. Value-equal options
// produce identical fingerprints regardless of how they were constructed.
func Fingerprint(bars []models.Bar, opts models.CalculationOptions) string {
	return strconv.FormatUint(fingerprintSum(bars, opts), 16)
}

func fingerprintSum(bars []models.Bar, opts models.CalculationOptions) uint64 {
	h := fnv.New64a()
	var buf [8]byte

	writeUint := func(v uint64) {
		for i := range buf {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	writeFloat := func(f float64) { writeUint(math.Float64bits(f)) }
	writeString := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	writeBool := func(b bool) {
		if b {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}

	// Series length disambiguates histories that share a trailing window.
	writeUint(uint64(len(bars)))
	tail := models.LastBars(bars, fingerprintBars)
	for _, b := range tail {
		writeFloat(b.Open)
		writeFloat(b.High)
		writeFloat(b.Low)
		writeFloat(b.Close)
		writeFloat(b.Volume)
		if b.HasTimestamp() {
			writeUint(uint64(b.Timestamp.UnixNano()))
		} else {
			writeUint(0)
		}
	}

	writeUint(uint64(len(opts.Methods)))
	for _, m := range opts.Methods {
		writeString(string(m))
	}
	writeUint(uint64(opts.ATRPeriod))
	writeString(string(opts.ATRMethod))
	writeUint(uint64(opts.Lookback))
	writeUint(uint64(len(opts.ZoneMultipliers)))
	for _, m := range opts.ZoneMultipliers {
		writeFloat(m)
	}
	writeBool(opts.EnableGamma)
	writeBool(opts.EnableSignificance)
	writeBool(opts.EnablePerformance)
	writeUint(uint64(opts.CacheTTL))
	writeUint(uint64(opts.Precision))

	return h.Sum64()
}
