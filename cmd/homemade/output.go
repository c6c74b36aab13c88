package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
)

type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) (*printer, error) {
	switch format {
	case "table", "json", "yaml":
		return &printer{format: format, w: w}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// print writes v as JSON or YAML, or hands a tabwriter to table.
func (p *printer) print(v any, table func(tw *tabwriter.Writer)) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

// message prints a one-line confirmation in table mode only.
func (p *printer) message(format string, args ...any) {
	if p.format == "table" {
		fmt.Fprintf(p.w, format+"\n", args...)
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// describe turns domain errors into what the user should do next.
func describe(err error) string {
	var ib *apperr.InsufficientBalanceError
	switch {
	case errors.Is(err, apperr.ErrAuthRequired):
		return err.Error() + " (run `homemade login`)"
	case errors.As(err, &ib):
		return fmt.Sprintf("insufficient balance: %s available, %s needed",
			ib.Balance.StringFixed(2), ib.Required.StringFixed(2))
	case errors.Is(err, apperr.ErrTimeout):
		return err.Error() + " (the service is slow, try again)"
	case errors.Is(err, apperr.ErrNetwork):
		return err.Error() + " (is the service running? try `homemade health`)"
	}
	return err.Error()
}
