package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_FilterByName(t *testing.T) {
	filter := NewFilter()

	tests := []struct {
		name     string
		files    []string
		pattern  string
		expected []string
	}{
		{
			name:     "empty pattern returns all",
			files:    []string{"math.suite.yaml", "payment.suite.yaml", "orders.suite.yaml"},
			pattern:  "",
			expected: []string{"math.suite.yaml", "payment.suite.yaml", "orders.suite.yaml"},
		},
		{
			name:     "wildcard pattern matches suffix",
			files:    []string{"math.suite.yaml", "payment.suite.yaml", "orders.suite.yaml"},
			pattern:  "*math.suite.yaml",
			expected: []string{"math.suite.yaml"},
		},
		{
			name:     "wildcard pattern matches substring",
			files:    []string{"math.suite.yaml", "payment.suite.yaml", "payment_refunds.suite.yaml"},
			pattern:  "*payment*",
			expected: []string{"payment.suite.yaml", "payment_refunds.suite.yaml"},
		},
		{
			name:     "simple contains match",
			files:    []string{"math.suite.yaml", "payment.suite.yaml"},
			pattern:  "pay",
			expected: []string{"payment.suite.yaml"},
		},
		{
			name:     "no matches",
			files:    []string{"math.suite.yaml", "payment.suite.yaml"},
			pattern:  "*missing*",
			expected: nil,
		},
		{
			name:     "full path matches on base name",
			files:    []string{"/suites/api/math.suite.yaml", "/suites/math/payment.suite.yaml"},
			pattern:  "*math*",
			expected: []string{"/suites/api/math.suite.yaml"},
		},
		{
			name:     "parts must appear in order",
			files:    []string{"user_api.suite.yaml", "api_user.suite.yaml"},
			pattern:  "*user*api*",
			expected: []string{"user_api.suite.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, filter.FilterByName(tt.files, tt.pattern))
		})
	}
}

func TestFilter_FilterByName_EdgeCases(t *testing.T) {
	filter := NewFilter()

	t.Run("empty file list", func(t *testing.T) {
		assert.Empty(t, filter.FilterByName([]string{}, "*.suite.yaml"))
	})

	t.Run("question mark wildcard", func(t *testing.T) {
		files := []string{"a1.suite.yaml", "a12.suite.yaml"}
		assert.Equal(t, []string{"a1.suite.yaml"}, filter.FilterByName(files, "a?.suite.yaml"))
	})

	t.Run("only wildcards", func(t *testing.T) {
		files := []string{"a.suite.yaml"}
		assert.Equal(t, files, filter.FilterByName(files, "*"))
	})
}
