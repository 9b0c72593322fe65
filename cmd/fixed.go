/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notargets/sparsegrid/model_problems"
)

// FixedCmd represents the fixed command
var FixedCmd = &cobra.Command{
	Use:   "fixed",
	Short: "Size of the non adaptive grid of a given depth",
	Long: `Prints the number of points of a fixed sparse grid, to compare with the
point count an adaptive study reaches after depth - 1 refinement passes.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			dims, _  = cmd.Flags().GetInt("dimensions")
			depth, _ = cmd.Flags().GetInt("depth")
			rule, _  = cmd.Flags().GetString("rule")
			n        int
		)
		if n, err = model_problems.FixedGridPoints(dims, depth, rule); err != nil {
			return
		}
		fmt.Printf("a fixed sparse grid of level %d would consist of %d points\n", depth, n)
		return
	},
}

func init() {
	rootCmd.AddCommand(FixedCmd)
	FixedCmd.Flags().IntP("dimensions", "d", 2, "number of dimensions")
	FixedCmd.Flags().Int("depth", 7, "depth of the grid")
	FixedCmd.Flags().String("rule", "localp", "rule: localp, semi-localp or localp-zero")
}
