// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestFormatSlogValue(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{"plain", "plain"},
		{int64(42), "42"},
		{true, "true"},
		{big.NewInt(1e9), "1000000000"},
		{uint256.NewInt(7), "7"},
		{(*big.Int)(nil), "<nil>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatSlogValue(slog.AnyValue(tt.value)))
	}
}

func TestTerminalHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, false))
	l.Info("credited stream", "token", "0xabc", "amount", big.NewInt(1000))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[INFO ]"), out)
	assert.Contains(t, out, "credited stream")
	assert.Contains(t, out, "token=0xabc")
	assert.Contains(t, out, "amount=1000")
}

func TestWithContextResolvesLate(t *testing.T) {
	pkgLogger := WithContext("pkg", "test")

	var buf bytes.Buffer
	old := Root()
	SetDefault(NewLogger(NewTerminalHandler(&buf, false)))
	defer SetDefault(old)

	pkgLogger.Info("hello")
	assert.Contains(t, buf.String(), "pkg=test")
}

func TestVerbosityFilter(t *testing.T) {
	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(slog.LevelInfo)
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, &lvl, false))

	l.Debug("hidden")
	l.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
