package cli

import (
	"flag"
	"strings"
	"time"
)

// ReconcileFlags are the flags for the one-shot reconcile command.
type ReconcileFlags struct {
	ConfigFile    string
	BankFile      string
	LedgerFile    string
	MappingFile   string
	Accounts      string // comma-separated account IDs
	From          string // YYYY-MM-DD
	To            string // YYYY-MM-DD
	ToleranceDays int
	DryRun        bool
	Verbose       bool
}

// ParseReconcileFlags parses the reconcile command line.
func ParseReconcileFlags() ReconcileFlags {
	var flags ReconcileFlags
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.BankFile, "bank", "", "Bank transactions JSON file")
	flag.StringVar(&flags.LedgerFile, "ledger", "", "Ledger transactions JSON file (empty = fetch from ledger API)")
	flag.StringVar(&flags.MappingFile, "mappings", "", "Category mappings JSON file (empty = fetch from ledger API)")
	flag.StringVar(&flags.Accounts, "accounts", "", "Comma-separated account IDs (empty = all)")
	flag.StringVar(&flags.From, "from", "", "Window start, YYYY-MM-DD")
	flag.StringVar(&flags.To, "to", "", "Window end, YYYY-MM-DD")
	flag.IntVar(&flags.ToleranceDays, "tolerance", 0, "Date tolerance in days (0 = config default)")
	flag.BoolVar(&flags.DryRun, "dry-run", false, "Run without persisting results")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// AccountIDs returns the parsed account ID list.
func (f ReconcileFlags) AccountIDs() []string {
	if f.Accounts == "" {
		return nil
	}
	parts := strings.Split(f.Accounts, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// Window parses the from/to flags. Empty flags yield zero times.
func (f ReconcileFlags) Window() (from, to time.Time, err error) {
	if f.From != "" {
		from, err = time.Parse("2006-01-02", f.From)
		if err != nil {
			return
		}
	}
	if f.To != "" {
		to, err = time.Parse("2006-01-02", f.To)
	}
	return
}
