package lab

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
	"github.com/thalesfsp/mab"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteStatisticsCSV writes one "name,n,mean,std,max" row per arm.
func WriteStatisticsCSV(w io.Writer, stats []mab.ArmStatistics) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"name", "n", "mean", "std", "max"}); err != nil {
		return err
	}

	for _, s := range stats {
		row := []string{
			s.Name,
			strconv.Itoa(s.N),
			formatFloat(s.Mean),
			formatFloat(s.Std),
			formatFloat(s.Max),
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteTraceCSV writes the trace with one column per arm, prefixed by the
// 1-based iteration.
func WriteTraceCSV(w io.Writer, names []string, trace [][]int) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(append([]string{"iteration"}, names...)); err != nil {
		return err
	}

	for i, counts := range trace {
		row := make([]string, 0, len(counts)+1)
		row = append(row, strconv.Itoa(i+1))

		for _, c := range counts {
			row = append(row, strconv.Itoa(c))
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, err = w.Write(append(data, '\n'))

	return err
}

// WriteArtifacts writes the statistics, trace and report of a run to dir as
// <run>_<dataset>_statistics.csv, <run>_<dataset>_trace.csv and
// <run>_<dataset>_report.json.
func WriteArtifacts(dir string, report Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	prefix := filepath.Join(dir, report.Run+"_"+report.Dataset)

	if err := writeFile(prefix+"_statistics.csv", func(w io.Writer) error {
		return WriteStatisticsCSV(w, report.Statistics)
	}); err != nil {
		return err
	}

	if err := writeFile(prefix+"_trace.csv", func(w io.Writer) error {
		return WriteTraceCSV(w, report.Arms, report.Trace)
	}); err != nil {
		return err
	}

	return writeFile(prefix+"_report.json", func(w io.Writer) error {
		return WriteJSON(w, report)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()

		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}

// RenderSummary prints one row per report.
func RenderSummary(w io.Writer, reports []Report) error {
	table := tablewriter.NewWriter(w)

	table.Header("Dataset", "Policy", "Winner", "CV", "Test", "Truth", "Exploitation")

	for _, r := range reports {
		test := "-"
		if r.HasTest {
			test = fmt.Sprintf("%.4f", r.TestScore)
		}

		truth, rate := "-", "-"
		if r.GroundTruth != "" {
			truth = r.GroundTruth
			rate = fmt.Sprintf("%.2f%%", 100*r.ExploitationRate)
		}

		winner := r.Winner
		if winner == "" {
			winner = "-"
		}

		row := []string{
			r.Dataset,
			string(r.Policy),
			winner,
			fmt.Sprintf("%.4f", r.BestReward),
			test,
			truth,
			rate,
		}

		if err := table.Append(row); err != nil {
			return err
		}
	}

	return table.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
