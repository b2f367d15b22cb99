package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/lifecriteria/criteria"
)

func newConditionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conditions",
		Short: "List the criteria and the conditions of a family",
		RunE: func(cmd *cobra.Command, args []string) error {
			family, _ := cmd.Flags().GetString("family")
			jsonOut, _ := cmd.Flags().GetBool("json")

			conds, err := criteria.ConditionsFor(criteria.Family(family))
			if err != nil {
				return err
			}

			if jsonOut {
				type row struct {
					Name    string   `json:"name"`
					Ablated []string `json:"ablated"`
					Proxy   []string `json:"proxy,omitempty"`
				}
				rows := make([]row, len(conds))
				for i, c := range conds {
					rows[i] = row{Name: c.Name, Ablated: c.Ablated.Names(), Proxy: c.Proxy.Names()}
				}
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"family":     family,
					"conditions": rows,
					"criteria":   criteria.Registry(),
				})
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "criterion\tdescription\tablated\tproxy")
			for _, info := range criteria.Registry() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.ID, info.Description, info.Ablation, info.Proxy)
			}
			tw.Flush()

			fmt.Printf("\nfamily %s: %d conditions\n", family, len(conds))
			for _, c := range conds {
				fmt.Printf("  %-32s %s\n", c.Name, ablatedLabel(c))
			}
			return nil
		},
	}
	cmd.Flags().String("family", string(criteria.FamilyAll), "Condition family: full, single, pairwise, pairwise_all, proxy, all")
	return cmd
}

// ablatedLabel lists the display names of c's ablated criteria, marking proxies.
func ablatedLabel(c criteria.Condition) string {
	var parts []string
	for _, cr := range c.Ablated.Criteria() {
		name := criteria.DisplayName(cr)
		if c.Proxy.Has(cr) {
			name += " (proxy)"
		}
		parts = append(parts, name)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " + ")
}
