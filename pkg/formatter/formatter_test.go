package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, "plain text", EscapeMarkdownV2("plain text"))
	assert.Equal(t, "\\#sunset \\- day 1\\!", EscapeMarkdownV2("#sunset - day 1!"))
	assert.Equal(t, "a\\_b\\*c\\[d\\]", EscapeMarkdownV2("a_b*c[d]"))
}
