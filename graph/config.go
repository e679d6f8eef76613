package graph

// TypeDef is one entry of the node type taxonomy.
type TypeDef struct {
	Tag      string   `json:"tag" yaml:"tag"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// TypeRule maps trigger keywords to a type tag. Rules are evaluated in order.
type TypeRule struct {
	Tag      string   `json:"tag" yaml:"tag"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// RelationRule maps a surface phrase to a canonical relation label.
// Rules are matched in order, so specific phrases must precede generic ones.
type RelationRule struct {
	Phrase string `json:"phrase" yaml:"phrase"`
	Label  string `json:"label" yaml:"label"`
}

// Config is the immutable configuration of a Normalizer.
type Config struct {
	Taxonomy  []TypeDef      `json:"taxonomy" yaml:"taxonomy"`
	TypeRules []TypeRule     `json:"type_rules" yaml:"type_rules"`
	Relations []RelationRule `json:"relations" yaml:"relations"`

	// PersonStopWords disqualify a short CJK name from the person heuristic.
	PersonStopWords []string `json:"person_stop_words" yaml:"person_stop_words"`

	MaxNodeNameLength    int    `json:"max_node_name_length" yaml:"max_node_name_length"`
	MaxRelationLength    int    `json:"max_relation_length" yaml:"max_relation_length"`
	DescriptionThreshold int    `json:"description_threshold" yaml:"description_threshold"`
	FallbackRelation     string `json:"fallback_relation" yaml:"fallback_relation"`

	// FilterEntities enables the low-quality entity filter before merging.
	FilterEntities bool `json:"filter_entities" yaml:"filter_entities"`

	// BlockingThreshold is the node count above which duplicate resolution
	// uses the rune index instead of a linear scan. Zero disables blocking.
	BlockingThreshold int `json:"blocking_threshold" yaml:"blocking_threshold"`
}

// DefaultConfig returns the taxonomy, rules and limits of the reference vocabulary.
func DefaultConfig() Config {
	return Config{
		Taxonomy:             DefaultTaxonomy(),
		TypeRules:            DefaultTypeRules(),
		Relations:            DefaultRelations(),
		PersonStopWords:      DefaultPersonStopWords(),
		MaxNodeNameLength:    10,
		MaxRelationLength:    8,
		DescriptionThreshold: 50,
		FallbackRelation:     RelRelated,
		BlockingThreshold:    256,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.Taxonomy) == 0 {
		c.Taxonomy = d.Taxonomy
	}
	if c.TypeRules == nil {
		c.TypeRules = d.TypeRules
	}
	if len(c.Relations) == 0 {
		c.Relations = d.Relations
	}
	if c.PersonStopWords == nil {
		c.PersonStopWords = d.PersonStopWords
	}
	if c.MaxNodeNameLength <= 0 {
		c.MaxNodeNameLength = d.MaxNodeNameLength
	}
	if c.MaxRelationLength <= 0 {
		c.MaxRelationLength = d.MaxRelationLength
	}
	if c.DescriptionThreshold <= 0 {
		c.DescriptionThreshold = d.DescriptionThreshold
	}
	if c.FallbackRelation == "" {
		c.FallbackRelation = d.FallbackRelation
	}
	if c.BlockingThreshold < 0 {
		c.BlockingThreshold = 0
	}
	return c
}

// DefaultTaxonomy returns the built-in node type taxonomy.
func DefaultTaxonomy() []TypeDef {
	return []TypeDef{
		{Tag: TypePerson, Keywords: []string{"人", "作者", "作家", "投资者", "创始人"}},
		{Tag: TypeBook, Keywords: []string{"书", "书籍", "著作", "作品"}},
		{Tag: TypeConcept, Keywords: []string{"概念", "理念", "方法", "策略", "理论"}},
		{Tag: TypeStrategy, Keywords: []string{"策略", "方法", "投资策略", "理财方法"}},
		{Tag: TypeMetric, Keywords: []string{"指标", "数据", "数值", "统计"}},
		{Tag: TypeExample, Keywords: []string{"例子", "案例", "实例", "示例"}},
		{Tag: TypeGroup, Keywords: []string{"群体", "人群", "投资者", "普通人"}},
		{Tag: TypeEntity, Keywords: []string{"实体", "对象"}},
	}
}

// DefaultTypeRules returns the keyword heuristics in priority order.
func DefaultTypeRules() []TypeRule {
	return []TypeRule{
		{Tag: TypeBook, Keywords: []string{"书", "book", "著作", "作品"}},
		{Tag: TypeStrategy, Keywords: []string{"策略", "方法", "strategy", "method"}},
		{Tag: TypeConcept, Keywords: []string{"概念", "理念", "concept", "idea"}},
		{Tag: TypeGroup, Keywords: []string{"群体", "人群", "group", "people"}},
	}
}

// DefaultPersonStopWords returns the common nouns that rule out a person name.
func DefaultPersonStopWords() []string {
	return []string{
		"书", "方法", "策略", "概念", "基金", "指数", "投资",
		"book", "method", "strategy", "fund", "index", "investment",
	}
}

// DefaultRelations returns the canonical relation vocabulary. Within each
// label group, and across groups that share substrings, longer phrases come
// first so containment matching does not stop at a generic entry.
func DefaultRelations() []RelationRule {
	groups := []struct {
		label   string
		phrases []string
	}{
		{"反例", []string{"不推荐", "不熟悉", "不保证", "反例", "反面"}},
		{"推荐", []string{"推荐标的", "推荐工具", "推荐", "建议"}},
		{"著作", []string{"著作", "编写", "撰写", "创作", "出版"}},
		{"主张", []string{"主张", "强调", "提倡", "倡导", "认为", "观点"}},
		{"属于", []string{"属于"}},
		{"包含", []string{"包含", "涵盖", "包括", "组成"}},
		{"适用于", []string{"适用于", "适合", "针对", "面向"}},
		{"影响", []string{"影响", "导致", "产生", "带来"}},
		{"依赖", []string{"建立在", "依赖", "基于", "需要"}},
		{"对比", []string{"对比", "相比", "区别", "不同"}},
		{"特点", []string{"关键特征", "特点", "特征", "属性"}},
		{"决定", []string{"由...决定", "取决于", "决定"}},
		{"解决", []string{"解决", "应对", "处理"}},
		{"面临", []string{"面临", "遭遇", "面对"}},
		{"类似", []string{"类似", "相似"}},
		{"通过", []string{"可通过", "通过", "借助"}},
		{"具有", []string{"具有", "拥有"}},
		{"计算", []string{"计算", "得出"}},

		// Containment runs both ways, so short English inputs that are
		// substrings of these phrases take their label: "is" and "ate"
		// give authored, "uses" gives influences, "in" gives contains.
		{"authored", []string{"authored", "wrote", "written by", "created", "published", "composed"}},
		{"counter_example", []string{"counter example", "counter_example", "not recommended", "not_recommended"}},
		{"recommends", []string{"recommends", "recommended", "suggests"}},
		{"advocates", []string{"advocates", "proposes", "argues", "believes"}},
		{"belongs_to", []string{"belongs to", "belongs_to", "part of", "part_of"}},
		{"contains", []string{"contains", "includes", "comprises"}},
		{"applies_to", []string{"applies to", "applies_to", "suitable for", "suitable_for", "intended for", "targets"}},
		{"influences", []string{"influences", "results in", "leads to", "causes", "affects"}},
		{"depends_on", []string{"depends on", "depends_on", "based on", "based_on", "relies on", "requires"}},
		{"contrasts_with", []string{"differs from", "contrasts with", "contrasts_with", "compared with"}},
		{"similar_to", []string{"similar to", "similar_to"}},
		{"has_feature", []string{"has feature", "has_feature", "characterized by"}},

		// Single-rune phrases match almost anything by containment; keep them last.
		{"类似", []string{"像"}},
		{"具有", []string{"有"}},
	}

	var rules []RelationRule
	for _, g := range groups {
		for _, p := range g.phrases {
			rules = append(rules, RelationRule{Phrase: p, Label: g.label})
		}
	}
	return rules
}
