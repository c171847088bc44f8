package mermaid

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

var validID = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,49}$`)

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"src/app/order.service.ts", "src_app_order_service_ts"},
		{"__a--b__", "a_b"},
		{"3rd-party/lib.js", "_3rd_party_lib_js"},
		{"", "node"},
		{"///", "node"},
		{"Überweisung.cs", "berweisung_cs"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeID(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, validID, got)
		})
	}
}

func TestEscapeLabel(t *testing.T) {
	t.Run("escapes quotes and backslashes", func(t *testing.T) {
		assert.Equal(t, `say \"hi\" C:\\x`, EscapeLabel("say \"hi\" C:\\x", ShortLabelMax))
	})

	t.Run("strips line breaks", func(t *testing.T) {
		assert.Equal(t, "ab", EscapeLabel("a\r\nb", ShortLabelMax))
	})

	t.Run("hostile name stays within the cap", func(t *testing.T) {
		in := strings.Repeat(`x"\`, 30) + "\nend"
		got := EscapeLabel(in, ShortLabelMax)

		assert.LessOrEqual(t, utf8.RuneCountInString(got), ShortLabelMax)
		assert.NotContains(t, got, "\n")
		assert.True(t, strings.HasSuffix(got, "..."))
		body := strings.TrimSuffix(got, "...")
		// every quote in the body must be escaped
		assert.NotRegexp(t, `(^|[^\\])"`, strings.ReplaceAll(body, `\\`, ""))
	})

	t.Run("short labels untouched", func(t *testing.T) {
		assert.Equal(t, "OrderService.cs", EscapeLabel("OrderService.cs", FileLabelMax))
	})
}

func TestIDs(t *testing.T) {
	ids := NewIDs()

	a := ids.ID("queue:a-b", "Q_", "a-b")
	b := ids.ID("queue:a.b", "Q_", "a.b")
	again := ids.ID("queue:a-b", "Q_", "a-b")

	assert.Equal(t, "Q_a_b", a)
	assert.Equal(t, "Q_a_b_2", b)
	assert.Equal(t, a, again)

	long := strings.Repeat("z", 60)
	first := ids.ID("1", "", long)
	second := ids.ID("2", "", long+"!")
	assert.Len(t, first, MaxIDLen)
	assert.Len(t, second, MaxIDLen)
	assert.NotEqual(t, first, second)
	assert.Regexp(t, validID, second)
}

func TestNode(t *testing.T) {
	assert.Equal(t, `n1["Order"]`, Node("n1", "Order"))
}
