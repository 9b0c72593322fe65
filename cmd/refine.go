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
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/sparsegrid/InputParameters"
	"github.com/notargets/sparsegrid/model_problems"
	"github.com/notargets/sparsegrid/utils"
)

// RefineCmd represents the refine command
var RefineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Adaptive refinement study of an analytic target",
	Long: `Starts from a coarse grid, refines on the hierarchical surplus and prints
the number of points and the maximum error over random test points after
every refinement pass.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip     = InputParameters.DefaultRefinementStudy()
			logger = newLogger()
			study  *model_problems.Study
			steps  []model_problems.StudyStep
		)
		if err = processInput(viper.GetString("inputConditionsFile"), &ip); err != nil {
			return
		}
		applyOverrides(&ip)
		ip.Print()
		if study, err = model_problems.NewStudy(ip, logger); err != nil {
			return
		}
		if steps, err = study.Run(); err != nil {
			return
		}
		fmt.Println()
		renderSteps(os.Stdout, steps)
		fmt.Printf("grid state: %s (%s)\n", study.Grid.State(), study.Grid.ConvergedReason())
		logger.Debug("study finished", "grid", study.Grid.ID(), "memory", utils.GetMemUsage())
		return
	},
}

func processInput(file string, ip *InputParameters.RefinementStudy) (err error) {
	if len(file) == 0 {
		return
	}
	var data []byte
	if data, err = os.ReadFile(file); err != nil {
		return
	}
	if err = ip.Parse(data); err != nil {
		return fmt.Errorf("parsing %s: %w", file, err)
	}
	return
}

// applyOverrides takes every study key set on the command line, in the config file or the environment.
func applyOverrides(ip *InputParameters.RefinementStudy) {
	if viper.IsSet("target") {
		ip.Target = viper.GetString("target")
	}
	if viper.IsSet("dimensions") {
		ip.Dimensions = viper.GetInt("dimensions")
	}
	if viper.IsSet("depth") {
		ip.Depth = viper.GetInt("depth")
	}
	if viper.IsSet("order") {
		ip.Order = viper.GetInt("order")
	}
	if viper.IsSet("rule") {
		ip.Rule = viper.GetString("rule")
	}
	if viper.IsSet("strategy") {
		ip.Strategy = viper.GetString("strategy")
	}
	if viper.IsSet("criterion") {
		ip.Criterion = viper.GetString("criterion")
	}
	if viper.IsSet("tolerance") {
		ip.Tolerance = viper.GetFloat64("tolerance")
	}
	if viper.IsSet("iterations") {
		ip.Iterations = viper.GetInt("iterations")
	}
	if viper.IsSet("testPoints") {
		ip.TestPoints = viper.GetInt("testPoints")
	}
	if viper.IsSet("seed") {
		ip.Seed = viper.GetInt64("seed")
	}
}

func renderSteps(w io.Writer, steps []model_problems.StudyStep) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Refinement Level", "Points", "Added", "Error", "Integral"})
	for _, st := range steps {
		t.AppendRow(table.Row{
			st.Iteration,
			st.Points,
			st.Added,
			fmt.Sprintf("%1.2e", st.MaxError),
			fmt.Sprintf("%.8f", st.Integral),
		})
	}
	t.Render()
}

func init() {
	rootCmd.AddCommand(RefineCmd)
	RefineCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for the study parameters like:\n\t- Target\n\t- Tolerance\n\t- Strategy")
	RefineCmd.Flags().StringP("target", "t", "cosine", "target function: cosine or peak")
	RefineCmd.Flags().IntP("dimensions", "d", 2, "number of dimensions")
	RefineCmd.Flags().Int("depth", 1, "depth of the initial grid")
	RefineCmd.Flags().IntP("order", "p", 1, "basis order - 1=linear, 2=quadratic, 3=cubic")
	RefineCmd.Flags().String("rule", "localp", "rule: localp, semi-localp or localp-zero")
	RefineCmd.Flags().StringP("strategy", "s", "fds", "refinement strategy: classic, parents-first, direction or fds")
	RefineCmd.Flags().String("criterion", "absolute", "surplus criterion: absolute or relative")
	RefineCmd.Flags().Float64P("tolerance", "e", 1.e-5, "surplus tolerance")
	RefineCmd.Flags().IntP("iterations", "n", 6, "maximum number of refinement passes")
	RefineCmd.Flags().Int("testPoints", 1000, "number of random points used to measure the error")
	RefineCmd.Flags().Int64("seed", 1, "seed of the random test points")
	for _, name := range []string{"inputConditionsFile", "target", "dimensions", "depth", "order", "rule",
		"strategy", "criterion", "tolerance", "iterations", "testPoints", "seed"} {
		_ = viper.BindPFlag(name, RefineCmd.Flags().Lookup(name))
	}
}
