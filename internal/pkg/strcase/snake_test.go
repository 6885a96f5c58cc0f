package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"Zip":            "zip",
		"userID":         "user_id",
		"ItemIDs":        "item_ids",
		"ItemIDs[0]":     "item_ids[0]",
		"HTTPServer":     "http_server",
		"URLs":           "urls",
		"APIsList":       "apis_list",
		"MarketingOptIn": "marketing_opt_in",
		"Line2":          "line2",
		"Address2Line":   "address2_line",
	}

	for in, want := range tests {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}
