package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const tsvFixture = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t2480\t3508\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t100\t100\t900\t40\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t100\t100\t200\t40\t96.5\tLucky\n" +
	"5\t1\t1\t1\t1\t2\t320\t100\t200\t40\t93.5\tCement\n" +
	"5\t1\t1\t1\t2\t1\t100\t160\t200\t40\t90\tFinal\n" +
	"5\t1\t1\t1\t2\t2\t320\t160\t200\t40\t-1\t \n" +
	"5\t1\t1\t1\t2\t3\t540\t160\t200\t40\t80\tDividend\n" +
	"5\t1\t2\t1\t1\t1\t100\t400\t200\t40\t70\tRs.5\n" +
	"5\t1\t2\t1\t1\t2\t100\t400\t200\t40\tx\tbroken\n"

func TestParseTSV(t *testing.T) {
	lines := ParseTSV([]byte(tsvFixture))

	assert.Equal(t, []Line{
		{Text: "Lucky Cement", Confidence: 95},
		{Text: "Final Dividend", Confidence: 85},
		{Text: "Rs.5", Confidence: 70},
	}, lines)
	assert.InDelta(t, 83.33, meanConfidence(lines), 0.01)
}

func TestParseTSV_Empty(t *testing.T) {
	assert.Empty(t, ParseTSV(nil))
	assert.Empty(t, ParseTSV([]byte("level\tpage_num\n")))
	assert.Zero(t, meanConfidence(nil))
}
