package dataset

import (
	"fmt"

	"github.com/samber/lo"
)

// Category is the assigned subcellular localization of a gene.
// DF marks diffuse/unclassified genes; it is still carried through the
// classifier as a fourth class, not dropped.
type Category string

const (
	CatDF Category = "DF"
	CatER Category = "ER"
	CatTG Category = "TG"
	CatCY Category = "CY"
)

// Categories lists the four classes in factor order. DF comes first and is
// the reference level of the multinomial fit.
var Categories = []Category{CatDF, CatER, CatTG, CatCY}

// ParseCategory maps a cell value to a category. The empty string is valid
// and means "not yet assigned".
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CatDF, CatER, CatTG, CatCY:
		return Category(s), true
	case "":
		return "", true
	}
	return "", false
}

// GeneRecord is one row of the localization table: identity, reported
// category, the raw and normalized partition-coefficient triplets, and the
// covariate cells. A covariate absent from the map is a missing cell.
type GeneRecord struct {
	Gene     string
	RefSeqID string
	Category Category

	PcoCY float64
	PcoER float64
	PcoTG float64

	NpcoCY float64
	NpcoER float64
	NpcoTG float64

	Covariates map[Covariate]float64
}

// Table is an immutable, ordered collection of gene records. Pipeline
// stages consume a table and produce a new one; rows are never mutated in
// place once loaded.
type Table struct {
	Source  string
	Records []GeneRecord
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.Records) }

// ClassCounts tallies records per category, including unassigned ("").
func (t *Table) ClassCounts() map[Category]int {
	return lo.CountValues(lo.Map(t.Records, func(r GeneRecord, _ int) Category { return r.Category }))
}

// DuplicateGenes returns gene names that appear on more than one row.
func (t *Table) DuplicateGenes() []string {
	names := lo.Map(t.Records, func(r GeneRecord, _ int) string { return r.Gene })
	return lo.FindDuplicates(names)
}

// CovariateColumn extracts one covariate column as aligned values plus a
// missingness mask, preserving row order.
func (t *Table) CovariateColumn(c Covariate) (vals []float64, present []bool) {
	vals = make([]float64, len(t.Records))
	present = make([]bool, len(t.Records))
	for i, r := range t.Records {
		if v, ok := r.Covariates[c]; ok {
			vals[i] = v
			present[i] = true
		}
	}
	return vals, present
}

// requiredColumns are the non-covariate columns every input table must carry.
var requiredColumns = []string{
	"Gene", "RefSeq", "Category",
	"pco_cy", "pco_er", "pco_tg",
	"npco_cy", "npco_er", "npco_tg",
}

// SchemaError reports a fatal shape problem with an input table. The
// pipeline cannot proceed without the full schema, so loaders return this
// immediately instead of degrading.
type SchemaError struct {
	Source string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in %s: %s", e.Source, e.Reason)
}
