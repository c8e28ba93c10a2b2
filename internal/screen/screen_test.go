package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const tsvSample = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t1920\t1080\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t100\t200\t80\t30\t96.5\tRanked\n" +
	"5\t1\t1\t1\t1\t2\t900\t520\t120\t40\t91.2\tAccept!\n"

func TestFindWord(t *testing.T) {
	box, ok := findWord(tsvSample, "accept!")
	assert.True(t, ok)
	assert.Equal(t, Box{X: 900, Y: 520, W: 120, H: 40}, box)

	cx, cy := box.Center()
	assert.Equal(t, 960, cx)
	assert.Equal(t, 540, cy)
}

func TestFindWordMissing(t *testing.T) {
	_, ok := findWord(tsvSample, "decline")
	assert.False(t, ok)
}

func TestFindWordIgnoresNonWordRows(t *testing.T) {
	// the level-1 page row has no text column content and must not match
	_, ok := findWord(tsvSample, "")
	assert.True(t, ok, "empty target matches the first word row")

	box, _ := findWord(tsvSample, "ranked")
	assert.Equal(t, 100, box.X)
}
