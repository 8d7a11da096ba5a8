// Package bitstat computes the bit-level statistics the collection tools
// report: ones counts per sample and a cumulative z-score against the
// expected 50/50 distribution of an unbiased source.
package bitstat

import (
	"math"
	"math/bits"
)

// CountOnes returns the number of set bits in buf, considering only
// bitCount bits total. Unused trailing bits in the final byte are not
// counted.
func CountOnes(buf []byte, bitCount int) int {
	if bitCount <= 0 || len(buf) == 0 {
		return 0
	}
	bytesUsed := (bitCount + 7) / 8
	if bytesUsed > len(buf) {
		bytesUsed = len(buf)
	}

	total := 0
	for i := 0; i < bytesUsed-1; i++ {
		total += bits.OnesCount8(buf[i])
	}

	usedBitsInLast := bitCount - (bytesUsed-1)*8
	if usedBitsInLast <= 0 || usedBitsInLast > 8 {
		usedBitsInLast = 8
	}
	mask := byte(0xFF) << (8 - usedBitsInLast)
	total += bits.OnesCount8(buf[bytesUsed-1] & mask)
	return total
}

// Row is one sample in a z-score series: a label (sample number or
// timestamp), its ones count, and the computed cumulative statistics.
type Row struct {
	Label          string
	Ones           int
	CumulativeMean float64
	ZScore         float64
}

// ZTest fills in the cumulative mean and z-score for each row, given the
// sample size in bits. For an unbiased source the expected ones count per
// sample is blockBits/2 with standard deviation sqrt(blockBits/4); the
// z-score tracks how far the running mean drifts from that expectation as
// samples accumulate.
func ZTest(rows []Row, blockBits int) []Row {
	expectedMean := 0.5 * float64(blockBits)
	expectedStdDev := math.Sqrt(float64(blockBits) * 0.25)
	if expectedStdDev == 0 {
		return rows
	}
	sum := 0
	for i := range rows {
		sum += rows[i].Ones
		cumMean := float64(sum) / float64(i+1)
		rows[i].CumulativeMean = cumMean
		rows[i].ZScore = (cumMean - expectedMean) / (expectedStdDev / math.Sqrt(float64(i+1)))
	}
	return rows
}
