package replay

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeLedgerCSV(f, ledger)
}

// EncodeLedgerCSV writes one row per period. Price and reward columns are
// numbered by agent, sized from the first row.
func EncodeLedgerCSV(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	nAgent := 0
	if len(ledger) > 0 {
		nAgent = len(ledger[0].Prices)
	}

	header := []string{"market", "path", "period"}
	for i := 0; i < nAgent; i++ {
		header = append(header, "price_"+strconv.Itoa(i))
	}
	header = append(header, "winning_price", "n_winners")
	for i := 0; i < nAgent; i++ {
		header = append(header, "reward_"+strconv.Itoa(i))
	}
	header = append(header, "discounted_reward", "cum_value")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			r.Market,
			string(r.Path),
			strconv.Itoa(r.Period),
		}
		for _, p := range r.Prices {
			row = append(row, strconv.Itoa(int(p)))
		}
		row = append(row, strconv.Itoa(int(r.WinningPrice)), strconv.Itoa(r.NWinners))
		for _, x := range r.Rewards {
			row = append(row, fmtFloat(x))
		}
		row = append(row, fmtFloat(r.DiscountedReward), fmtFloat(r.CumValue))
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
