package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"book quotes", "《穷爸爸富爸爸》", "穷爸爸富爸爸"},
		{"corner brackets", "「复利」", "复利"},
		{"ascii quotes", "\"index fund\"", "index fund"},
		{"whitespace", "  hello \t  world  ", "hello world"},
		{"cjk truncation", "一二三四五六七八九十十一", "一二三四五六七八九十"},
		{"two words", "Modern Portfolio Theory", "Modern Portfolio"},
		{"single long word", "Supercalifragilistic", "Supercalif"},
		{"apostrophe kept", "O'Neil", "O'Neil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in, 10))
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"《穷爸爸富爸爸》", "  a   b  c ", "一二三四五六七八九十十一",
		"Modern Portfolio Theory", "Supercalifragilistic", "【定投】策略",
	}
	for _, in := range inputs {
		once := NormalizeName(in, 10)
		assert.Equal(t, once, NormalizeName(once, 10), in)
	}
}

func TestNormalizeNameNoLimit(t *testing.T) {
	long := strings.Repeat("长", 30)
	assert.Equal(t, long, NormalizeName(long, 0))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "", truncateRunes("abc", 0))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "穷爸", truncateRunes("穷爸爸", 2))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, LangZH, DetectLanguage("李笑来"))
	assert.Equal(t, LangEN, DetectLanguage("Warren Buffett"))
	assert.Equal(t, LangEN, DetectLanguage(""))
	assert.Equal(t, LangEN, DetectLanguage("AI 投资"))
	assert.Equal(t, LangZH, DetectLanguage("定投基金ETF"))
}

func TestShouldFilterEntity(t *testing.T) {
	filtered := []string{
		"", "   ", "我们", "这个", "The", "it", "a", "的",
		"12345", "A&B", "x/y", strings.Repeat("n", 51),
	}
	for _, name := range filtered {
		assert.True(t, ShouldFilterEntity(name), "%q should be filtered", name)
	}

	kept := []string{"李笑来", "Warren Buffett", "指数基金", "ETF", "定投"}
	for _, name := range kept {
		assert.False(t, ShouldFilterEntity(name), "%q should be kept", name)
	}
}

func TestInferType(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	tests := []struct {
		name string
		raw  RawNode
		want string
	}{
		{"person heuristic", RawNode{ID: "李笑来"}, TypePerson},
		{"declared type wins", RawNode{ID: "李笑来", Type: "Book"}, TypeBook},
		{"declared type case-insensitive", RawNode{ID: "x", Type: "book"}, TypeBook},
		{"unknown declared type ignored", RawNode{ID: "Widget", Type: "Gadget"}, TypeEntity},
		{"stop word blocks person", RawNode{ID: "定投策略"}, TypeStrategy},
		{"book keyword", RawNode{ID: "财富自由之路这本书"}, TypeBook},
		{"description keyword", RawNode{ID: "Compound Interest", Description: "A concept about growth"}, TypeConcept},
		{"fallback", RawNode{ID: "Widget"}, TypeEntity},
		{"label when id empty", RawNode{Label: "《李笑来》"}, TypePerson},
		{"label over opaque id", RawNode{ID: "E123", Label: "李笑来"}, TypePerson},
		{"label keywords over opaque id", RawNode{ID: "n-42", Label: "财富自由之路这本书"}, TypeBook},
		{"blank label falls back to id", RawNode{ID: "李笑来", Label: "  "}, TypePerson},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.InferType(tt.raw))
		})
	}
}

func TestCanonicalizeRelation(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	tests := []struct {
		in   string
		want string
	}{
		{"编写", "著作"},
		{"撰写", "著作"},
		{"推荐标的", "推荐"},
		{"不推荐", "反例"},
		{"非常推荐买入", "推荐"},
		{"建立在……之上", "依赖"},
		{"Wrote", "authored"},
		{"is written by", "authored"},
		{"", RelRelated},
		{"   ", RelRelated},
		{"星期天吃饭散步游泳", "星期天吃饭散步游"},
		{"散步", "散步"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := n.CanonicalizeRelation(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, runeLen(got), 8)
		})
	}
}

func TestCanonicalizeRelationFallbackTrimmed(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	assert.Equal(t, "located", n.CanonicalizeRelation("located in"))
	assert.Equal(t, "决定", n.CanonicalizeRelation("由...决定"))
}

// Short English words hit longer vocabulary phrases by reverse containment.
func TestCanonicalizeRelationShortEnglish(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	tests := map[string]string{
		"is":   "authored",
		"ate":  "authored",
		"uses": "influences",
		"in":   "contains",
	}
	for in, want := range tests {
		assert.Equal(t, want, n.CanonicalizeRelation(in), in)
	}
}

func TestCanonicalizeRelationCustomFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FallbackRelation = "related"
	n := NewNormalizer(cfg)
	assert.Equal(t, "related", n.CanonicalizeRelation(""))
}

func TestExtractProperties(t *testing.T) {
	t.Run("short description unchanged", func(t *testing.T) {
		props := map[string]any{"source": "doc"}
		desc, out := ExtractProperties("简短描述", props, 50)
		assert.Equal(t, "简短描述", desc)
		assert.Equal(t, props, out)

		out["extra"] = 1
		assert.NotContains(t, props, "extra")
	})

	t.Run("long description", func(t *testing.T) {
		long := "长期持有指数基金3年可以获得10万收益" + strings.Repeat("啊", 40)
		desc, out := ExtractProperties(long, nil, 50)

		require.True(t, strings.HasSuffix(desc, "..."))
		assert.Equal(t, 53, runeLen(desc))
		assert.Equal(t, []string{"3", "10万"}, out[PropNumbers])
		assert.Equal(t, []string{"3年", "长期"}, out[PropTimes])

		again, props := ExtractProperties(desc, nil, 50)
		assert.Equal(t, desc, again)
		assert.Empty(t, props)
	})

	t.Run("full-width digits", func(t *testing.T) {
		long := "坚持３年定投，积累５万" + strings.Repeat("啊", 60)
		_, out := ExtractProperties(long, nil, 50)
		assert.Equal(t, []string{"３", "５万"}, out[PropNumbers])
		assert.Equal(t, []string{"３年"}, out[PropTimes])
	})

	t.Run("no values found", func(t *testing.T) {
		desc, out := ExtractProperties(strings.Repeat("x", 60), nil, 50)
		assert.Equal(t, strings.Repeat("x", 50)+"...", desc)
		assert.NotContains(t, out, PropNumbers)
		assert.NotContains(t, out, PropTimes)
	})
}
