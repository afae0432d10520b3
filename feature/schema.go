// Package feature builds ranking feature tables for (user, candidate) pairs.
package feature

// FieldKind distinguishes numeric features from categorical ones. The ranking
// model handles categoricals natively, without one-hot encoding.
type FieldKind int

const (
	Numeric FieldKind = iota
	Categorical
)

// Field declares one feature column: its name, kind, and the fill value used
// when the underlying join has no row (cold article, unknown user).
type Field struct {
	Name    string
	Kind    FieldKind
	Fill    float64 // numeric fill
	FillCat string  // categorical fill
}

// Schema is the ordered feature contract between the builder, the training
// pipeline and the serving scorer. Order matters: the model artifact records
// this order and refuses vectors that do not match it.
type Schema []Field

// DefaultSchema lists every feature the ranking model consumes.
var DefaultSchema = Schema{
	{Name: "user_total_purchases", Kind: Numeric, Fill: 0},
	// 9999 marks users with no purchase history at all.
	{Name: "user_recency_days", Kind: Numeric, Fill: 9999},
	{Name: "user_age_bin", Kind: Categorical, FillCat: "unknown"},
	{Name: "item_popularity_7d", Kind: Numeric, Fill: 0},
	{Name: "item_popularity_30d", Kind: Numeric, Fill: 0},
	{Name: "item_price_mean_30d", Kind: Numeric, Fill: 0},
	{Name: "item_department_no", Kind: Numeric, Fill: -1},
	{Name: "item_gender_tag", Kind: Numeric, Fill: 0},
	{Name: "recent_interaction_flag_7d", Kind: Numeric, Fill: 0},
	{Name: "co_purchase_count_with_last3", Kind: Numeric, Fill: 0},
	{Name: "retrieval_recent_score", Kind: Numeric, Fill: 0},
	{Name: "retrieval_bought_together_score", Kind: Numeric, Fill: 0},
	{Name: "retrieval_popular_age_score", Kind: Numeric, Fill: 0},
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

// Field looks up a column by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
