package advisor

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var logHeader = []string{
	"time",
	"hand_input",
	"dealer_up_input",
	"state",
	"player_value",
	"player_soft",
	"pair",
	"dealer_up",
	"action",
	"expected_value",
	"source",
	"result",
}

// Record is one advised decision.
type Record struct {
	Time        time.Time
	HandInput   string
	DealerInput string
	Advice      Advice
	Result      Result
}

// SessionLog appends advice records to a CSV file, writing the header when
// the file is new.
type SessionLog struct {
	f *os.File
	w *csv.Writer
}

// OpenSessionLog opens path for appending.
func OpenSessionLog(path string) (*SessionLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	l := &SessionLog{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := l.w.Write(logHeader); err != nil {
			f.Close()
			return nil, err
		}
		l.w.Flush()
	}
	return l, l.w.Error()
}

// Append writes and flushes one record.
func (l *SessionLog) Append(r Record) error {
	adv := r.Advice
	row := []string{
		r.Time.UTC().Format(time.RFC3339),
		r.HandInput,
		r.DealerInput,
		adv.Key.String(),
		strconv.Itoa(int(adv.Key.Total)),
		strconv.FormatBool(adv.Key.Soft),
		strconv.Itoa(int(adv.Key.Pair)),
		strconv.Itoa(int(adv.Key.Dealer)),
		adv.Action.Short(),
		strconv.FormatFloat(adv.Value, 'f', 4, 64),
		adv.Source,
		string(r.Result),
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *SessionLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
