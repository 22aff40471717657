package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotal(t *testing.T) {
	tests := []struct {
		name      string
		base      string
		expedited bool
		want      string
	}{
		{"standard", "250", false, "250.00"},
		{"expedited adds fee", "250", true, "325.00"},
		{"cents preserved", "99.99", true, "174.99"},
		{"free service expedited", "0", true, "75.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := ParseAmount(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatAmount(CalculateTotal(base, DefaultExpediteFee, tt.expedited)))
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"250", 25000, false},
		{"250.5", 25050, false},
		{"250.50", 25050, false},
		{"$75", 7500, false},
		{" 12.03 ", 1203, false},
		{".50", 50, false},
		{"", 0, true},
		{"-5", 0, true},
		{"1.234", 0, true},
		{"12.", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "1234.50", FormatAmount(123450))
	assert.Equal(t, "-3.10", FormatAmount(-310))
}
