// Command invoicectl drives the extraction workflow from the terminal: select
// a document, extract it, optionally touch up fields, then save it to the
// invoice database through the API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"invoice-parser/internal/api"
	"invoice-parser/internal/workflow"
)

type editFlags []string

func (e *editFlags) String() string { return strings.Join(*e, ",") }

func (e *editFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected field=value, got %q", v)
	}
	*e = append(*e, v)
	return nil
}

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:5000", "invoice-parser API base URL")
		filePath  = flag.String("file", "", "invoice document to extract (PDF, PNG, JPG, JPEG)")
		page      = flag.Int("page", 0, "zero-based page to extract from a PDF")
		listOnly  = flag.Bool("list", false, "list saved invoices and exit")
		showRaw   = flag.Bool("raw", false, "print raw OCR text and model response")
		noSave    = flag.Bool("no-save", false, "extract and print without saving")
		edits     editFlags
	)
	flag.Var(&edits, "set", "field edit as field=value, repeatable (e.g. -set total_amount=99.50 -set line_item_0_quantity=2)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := api.NewClient(*serverURL, logger)
	ctl := workflow.New(client,
		workflow.WithLogger(logger),
		workflow.WithProgress(func(p workflow.Progress) {
			if p.Stage != workflow.StageIdle {
				fmt.Printf("[%3d%%] %s\n", p.Percent, p.Label)
			}
		}),
	)
	ctx := context.Background()
	session := ctl.NewSession()

	if *listOnly {
		if err := ctl.RefreshInvoices(ctx, session); err != nil {
			fatal("list invoices: %v", err)
		}
		printInvoices(session)
		return
	}

	if *filePath == "" {
		fatal("usage: invoicectl -file invoice.pdf [-page N] [-set field=value] [-no-save]")
	}
	data, err := os.ReadFile(*filePath)
	if err != nil {
		fatal("read %s: %v", *filePath, err)
	}

	ctl.SelectFile(ctx, session, workflow.File{
		Name:      filepath.Base(*filePath),
		MediaType: mime.TypeByExtension(filepath.Ext(*filePath)),
		Data:      data,
	})
	if session.Err != "" {
		fatal("%s", session.Err)
	}
	if session.PDFPages > 1 {
		fmt.Printf("PDF has %d pages, extracting page %d\n", session.PDFPages, *page)
		ctl.SelectPage(session, *page)
	}

	if err := ctl.Extract(ctx, session); err != nil {
		fatal("%s", session.Err)
	}
	if session.Err != "" {
		fatal("%s", session.Err)
	}

	if *showRaw {
		if session.RawOCRText != nil {
			fmt.Printf("--- raw OCR text ---\n%s\n", *session.RawOCRText)
		}
		if session.RawJSONResponse != nil {
			fmt.Printf("--- raw model response ---\n%s\n", *session.RawJSONResponse)
		}
	}

	for _, e := range edits {
		field, value, _ := strings.Cut(e, "=")
		ctl.EditField(session, field, value)
	}

	fmt.Println("--- extracted invoice ---")
	printJSON(session.Draft)

	if *noSave {
		return
	}
	if err := ctl.Save(ctx, session); err != nil || session.Err != "" {
		fatal("%s", session.Err)
	}
	fmt.Printf("saved with OrderID %d\n", *session.SavedOrderID)
	printInvoices(session)
}

func printInvoices(s *workflow.Session) {
	fmt.Printf("%d invoice(s) on record\n", len(s.Invoices))
	for _, h := range s.Invoices {
		fmt.Printf("  #%d  %-20s %-24s %10.2f %s\n",
			h.OrderID, h.InvoiceNumber, h.VendorName, h.TotalAmount, h.Currency)
	}
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encode output: %v", err)
	}
	fmt.Println(string(b))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "invoicectl: "+format+"\n", args...)
	os.Exit(1)
}
