package analysis

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteTable prints verdicts as an aligned text table.
func WriteTable(w io.Writer, vs []Verdict, alpha float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "condition\tn\tnormal\tablated\tdelta%\td\tcliff\tU\tp\tp_holm\tverdict")
	for _, v := range vs {
		d := fmt.Sprintf("%.3f", v.CohenD)
		switch {
		case v.Saturated && v.CohenD == 0:
			d = "sat"
		case v.Saturated:
			d += " (sat)"
		}
		verdict := "n.s."
		if v.Significant {
			verdict = "SIG"
		}
		fmt.Fprintf(tw, "%s\t%d/%d\t%.1f\t%.1f\t%+.1f\t%s\t%+.3f\t%.1f\t%.4g\t%.4g\t%s\n",
			v.Condition, v.NNormal, v.NAblated, v.NormalMean, v.AblatedMean, v.PercentDelta,
			d, v.CliffsDelta, v.U, v.PRaw, v.PCorrected, verdict)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nsignificant: %d/%d at alpha=%.3g (Holm-Bonferroni)\n", CountSignificant(vs), len(vs), alpha)
	return err
}

// WriteInteractions prints pairwise interaction rows.
func WriteInteractions(w io.Writer, in []Interaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "pair\tfirst\tsecond\tpair_mean\texpected\tratio\tclass")
	for _, r := range in {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.3f\t%s\n",
			r.Pair, r.FirstMean, r.SecondMean, r.PairMean, r.Expected, r.Ratio, r.Class)
	}
	return tw.Flush()
}
