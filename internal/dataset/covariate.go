package dataset

// Covariate identifies one of the numeric gene-level features used to
// predict localization. The set is closed: input tables are validated
// against it at load time rather than resolved by string lookup later.
type Covariate string

const (
	// Annotated 3'UTR length; the only length-like covariate. Missing
	// values are imputed with the column median, not zero.
	CovAnno3UTRLength Covariate = "Anno_3UTR_length"

	// eCLIP peak counts per RBP over the 3'UTR.
	CovClipELAVL1  Covariate = "Clip_ELAVL1"
	CovClipTIA1    Covariate = "Clip_TIA1"
	CovClipTIAL1   Covariate = "Clip_TIAL1"
	CovClipPUM2    Covariate = "Clip_PUM2"
	CovClipIGF2BP1 Covariate = "Clip_IGF2BP1"
	CovClipIGF2BP2 Covariate = "Clip_IGF2BP2"
	CovClipIGF2BP3 Covariate = "Clip_IGF2BP3"
	CovClipFMR1    Covariate = "Clip_FMR1"
	CovClipTARDBP  Covariate = "Clip_TARDBP"
	CovClipHNRNPK  Covariate = "Clip_HNRNPK"
	CovClipHNRNPC  Covariate = "Clip_HNRNPC"
	CovClipPTBP1   Covariate = "Clip_PTBP1"
	CovClipQKI     Covariate = "Clip_QKI"
	CovClipSRSF1   Covariate = "Clip_SRSF1"
	CovClipU2AF2   Covariate = "Clip_U2AF2"
	CovClipYTHDF1  Covariate = "Clip_YTHDF1"
	CovClipYTHDF2  Covariate = "Clip_YTHDF2"
	CovClipMETTL3  Covariate = "Clip_METTL3"
	CovClipLIN28B  Covariate = "Clip_LIN28B"
	CovClipMOV10   Covariate = "Clip_MOV10"
	CovClipUPF1    Covariate = "Clip_UPF1"
	CovClipDDX3X   Covariate = "Clip_DDX3X"
	CovClipEIF4A3  Covariate = "Clip_EIF4A3"

	// Sequence-motif counts.
	CovMotifARE         Covariate = "Motif_ARE"
	CovMotifPAS         Covariate = "Motif_PAS"
	CovMotifGQuadruplex Covariate = "Motif_GQuadruplex"
	CovMotifCURich      Covariate = "Motif_CURich"
	CovMotifUGRepeat    Covariate = "Motif_UGRepeat"

	// Predicted secondary-structure summaries.
	CovStructPairedFrac Covariate = "Struct_PairedFrac"
	CovStructLoopCount  Covariate = "Struct_LoopCount"

	// m6A site count.
	CovSiteM6A Covariate = "Site_m6A"
)

// Covariates lists every covariate in canonical column order. This order is
// the feature-matrix column order and the coefficient-table row order.
var Covariates = []Covariate{
	CovAnno3UTRLength,
	CovClipELAVL1, CovClipTIA1, CovClipTIAL1, CovClipPUM2,
	CovClipIGF2BP1, CovClipIGF2BP2, CovClipIGF2BP3,
	CovClipFMR1, CovClipTARDBP, CovClipHNRNPK, CovClipHNRNPC,
	CovClipPTBP1, CovClipQKI, CovClipSRSF1, CovClipU2AF2,
	CovClipYTHDF1, CovClipYTHDF2, CovClipMETTL3, CovClipLIN28B,
	CovClipMOV10, CovClipUPF1, CovClipDDX3X, CovClipEIF4A3,
	CovMotifARE, CovMotifPAS, CovMotifGQuadruplex, CovMotifCURich, CovMotifUGRepeat,
	CovStructPairedFrac, CovStructLoopCount,
	CovSiteM6A,
}

var covariateIndex = func() map[Covariate]int {
	m := make(map[Covariate]int, len(Covariates))
	for i, c := range Covariates {
		m[c] = i
	}
	return m
}()

// ParseCovariate maps a column name to its covariate identifier.
func ParseCovariate(name string) (Covariate, bool) {
	c := Covariate(name)
	_, ok := covariateIndex[c]
	return c, ok
}

// Index returns the canonical column index of c, or -1 if c is unknown.
func (c Covariate) Index() int {
	if i, ok := covariateIndex[c]; ok {
		return i
	}
	return -1
}
