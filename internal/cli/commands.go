package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Makepad-fr/qrgen/internal/model"
	"github.com/Makepad-fr/qrgen/internal/page"
	"github.com/Makepad-fr/qrgen/internal/qr"
	"github.com/Makepad-fr/qrgen/internal/remote"
	"github.com/Makepad-fr/qrgen/internal/store"
	"github.com/Makepad-fr/qrgen/internal/ui"
	"github.com/jszwec/csvutil"
	"github.com/spf13/cobra"
)

// notify runs the mirror phase of a mutation in the foreground.
func (a *app) notify(n store.Notify) error {
	if n == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.MirrorTimeout())
	defer cancel()
	return n(ctx)
}

// warnMessage prints a non-fatal controller message, e.g. a failed mirror.
func (a *app) warnMessage(ctrl *page.Controller) {
	if msg := ctrl.Message(); msg.Error {
		ui.Fail(a.errOut, msg.Text)
	}
}

func newListCmd(a *app) *cobra.Command {
	var format string
	var pageNum int
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List QR codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller("")
			if err != nil {
				return err
			}
			recs := ctrl.Records()
			if pageNum > 0 {
				if !ctrl.GoToPage(pageNum) {
					return fmt.Errorf("page %d out of range (1-%d)", pageNum, ctrl.PageCount())
				}
				recs = ctrl.Visible()
			}

			switch format {
			case "json":
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			case "csv":
				b, err := csvutil.Marshal(recs)
				if err != nil {
					return fmt.Errorf("encode csv: %w", err)
				}
				_, err = a.out.Write(b)
				return err
			case "table":
				printTable(a, ctrl, recs, pageNum)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want table, csv or json)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, csv or json")
	cmd.Flags().IntVarP(&pageNum, "page", "p", 0, "show only this page (0 for all)")
	return cmd
}

func printTable(a *app, ctrl *page.Controller, recs []model.Record, pageNum int) {
	t := ui.Current()
	header := fmt.Sprintf("%s   %s %d", t.Title.Render("QR codes"), t.Accent.Render("Total"), len(ctrl.Records()))
	if pageNum > 0 {
		header += t.Muted.Render(fmt.Sprintf("   page %d/%d", pageNum, ctrl.PageCount()))
	}
	lines := []string{header, ""}
	if len(recs) == 0 {
		lines = append(lines, t.Muted.Render("No QR codes yet."))
	}
	for _, rec := range recs {
		title := rec.Title
		if title == "" {
			title = "(untitled)"
		}
		lines = append(lines, fmt.Sprintf("%s  %-20s  %s",
			t.Muted.Render(model.ShortID(rec.ID)),
			qr.Truncate(title, 20),
			t.Accent.Render(qr.Truncate(rec.URL, qr.DisplayCap)),
		))
	}
	ui.Panel(a.out, lines)
}

func newAddCmd(a *app) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "add URL",
		Short: "Generate a QR code for URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller("")
			if err != nil {
				return err
			}
			ctrl.SetInput(title, args[0])
			n, err := ctrl.Submit()
			if err != nil {
				return err
			}
			ctrl.SubmitDone(a.notify(n))
			recs := ctrl.Records()
			ui.OK(a.out, "added "+recs[len(recs)-1].ID)
			a.warnMessage(ctrl)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "optional title shown next to the code")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var title, url string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the title or URL of a QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("title") && !cmd.Flags().Changed("url") {
				return errors.New("nothing to change: pass --title and/or --url")
			}
			ctrl, err := a.controller("")
			if err != nil {
				return err
			}
			rec, err := resolve(ctrl, args[0])
			if err != nil {
				return err
			}
			if err := ctrl.StartEditing(rec.ID); err != nil {
				return err
			}
			newTitle, newURL := ctrl.Input()
			if cmd.Flags().Changed("title") {
				newTitle = title
			}
			if cmd.Flags().Changed("url") {
				newURL = url
			}
			ctrl.SetInput(newTitle, newURL)
			n, err := ctrl.Submit()
			if err != nil {
				return err
			}
			ctrl.SubmitDone(a.notify(n))
			ui.OK(a.out, "updated "+rec.ID)
			a.warnMessage(ctrl)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&url, "url", "u", "", "new URL")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a QR code",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller("")
			if err != nil {
				return err
			}
			rec, err := resolve(ctrl, args[0])
			if err != nil {
				return err
			}
			if err := ctrl.RequestDelete(rec.ID); err != nil {
				return err
			}
			if !yes {
				ok, err := a.confirm(page.ConfirmTitle, page.ConfirmDescription+"\n"+rec.URL)
				if err != nil {
					return err
				}
				if !ok {
					ctrl.CancelDelete()
					ui.OK(a.out, "kept "+rec.ID)
					return nil
				}
			}
			n, err := ctrl.ConfirmDelete()
			if err != nil {
				return err
			}
			ctrl.RemoveDone(a.notify(n))
			ui.OK(a.out, "removed "+rec.ID)
			a.warnMessage(ctrl)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:     "export ID",
		Aliases: []string{"download"},
		Short:   "Write a QR code as a PNG image",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(dir)
			if err != nil {
				return err
			}
			rec, err := resolve(ctrl, args[0])
			if err != nil {
				return err
			}
			export, err := ctrl.Download(rec.ID)
			if err != nil {
				return err
			}
			path, err := export()
			ctrl.DownloadDone(path, err)
			if err != nil {
				return err
			}
			ui.OK(a.out, ctrl.Message().Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default from config)")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print a QR code in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller("")
			if err != nil {
				return err
			}
			rec, err := resolve(ctrl, args[0])
			if err != nil {
				return err
			}
			symbol, err := qr.Render(rec.URL)
			if err != nil {
				return err
			}
			t := ui.Current()
			ui.Panel(a.out, []string{
				symbol,
				t.Title.Render(rec.Title),
				t.Accent.Render(rec.URL),
				t.Muted.Render(rec.ID),
			})
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Add QR codes from a CSV file with title and url columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			dec, err := csvutil.NewDecoder(csv.NewReader(f))
			if err != nil {
				return fmt.Errorf("failed to create CSV decoder: %w", err)
			}
			var rows []model.Record
			if err := dec.Decode(&rows); err != nil {
				return fmt.Errorf("decode csv: %w", err)
			}

			ctrl, err := a.controller("")
			if err != nil {
				return err
			}
			added, skipped := 0, 0
			for i, row := range rows {
				ctrl.SetInput(row.Title, row.URL)
				n, err := ctrl.Submit()
				if err != nil {
					a.log.Warn("skipping row", "row", i+2, "url", row.URL, "err", err)
					skipped++
					continue
				}
				ctrl.SubmitDone(a.notify(n))
				added++
			}
			ui.OK(a.out, fmt.Sprintf("imported %d, skipped %d", added, skipped))
			a.warnMessage(ctrl)
			return nil
		},
	}
}

func newMirrorCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Run a development mirror that journals save/remove notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := &http.Server{
				Addr:              addr,
				Handler:           remote.NewRouter(remote.NewJournal(), a.log),
				ReadHeaderTimeout: 5 * time.Second,
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			a.log.Info("mirror listening", "addr", addr)

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("mirror: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			a.log.Info("mirror shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
