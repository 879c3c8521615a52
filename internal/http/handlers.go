package http

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"financia/internal/core"
	"financia/internal/store"
)

const errReplyBanner = "FinancIA could not reach the language model. Your message was saved; please try again."

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	client, ok := s.clients.LoadClients(r.Context())[s.clientID]
	if !ok {
		client = core.Client{ID: s.clientID, Name: "Client " + s.clientID}
	}

	type chatLine struct {
		Role string
		Text string
	}
	data := struct {
		ClientName string
		Balance    string
		Messages   []chatLine
		Flash      string
	}{
		ClientName: client.Name,
		Balance:    client.Balance.Format() + " Bs.",
		Flash:      s.takeFlash(),
	}
	for _, m := range s.conv.Messages() {
		data.Messages = append(data.Messages, chatLine{Role: m.Role, Text: m.Content})
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleChat runs one chat turn and redirects back to the transcript
// (post/redirect/get, so a refresh never resends the message).
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.logger.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	message := sanitizeInput(r.Form.Get("message"))
	if message == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.turnMu.Lock()
	reply, err := s.responder.Respond(r.Context(), s.conv, message)
	s.turnMu.Unlock()
	if err != nil {
		// The user message is already persisted; surface a transient banner
		// instead of losing the turn.
		s.logger.ErrorContext(r.Context(), "Chat turn failed", "error", err)
		s.setFlash(errReplyBanner)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if reply.DataChanged {
		s.invalidateDashboards()
		s.logger.InfoContext(r.Context(), "Dashboard caches invalidated", "client_id", s.clientID)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDashboard renders the dashboard partial: category breakdown plus
// monthly trend, both served from cache when fresh.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	summary, months, err := s.aggregates(r.Context())
	if err != nil {
		if !errors.Is(err, store.ErrHistoryUnavailable) {
			s.logger.ErrorContext(r.Context(), "Dashboard aggregation error", "error", err)
		}
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Expense history unavailable</div></section>`))
		return
	}
	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Total: ` + summary.Total.Format() + ` Bs.</div></section>`))
		return
	}

	type row struct {
		Name, Amount string
		Width        int
	}
	var maxCents int64
	for _, c := range summary.ByCategory {
		if c.Amount.Cents > maxCents {
			maxCents = c.Amount.Cents
		}
	}
	var maxMonth int64
	for _, m := range months {
		if m.Amount.Cents > maxMonth {
			maxMonth = m.Amount.Cents
		}
	}

	data := struct {
		Total      string
		Categories []row
		Months     []row
	}{Total: summary.Total.Format() + " Bs."}
	for _, c := range summary.ByCategory {
		data.Categories = append(data.Categories, row{
			Name:   c.Name,
			Amount: c.Amount.Format() + " Bs.",
			Width:  barWidth(c.Amount.Cents, maxCents),
		})
	}
	for _, m := range months {
		data.Months = append(data.Months, row{
			Name:   m.Month,
			Amount: m.Amount.Format() + " Bs.",
			Width:  barWidth(m.Amount.Cents, maxMonth),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "dashboard.html")
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Error rendering dashboard</div></section>`))
	}
}

// handleExport streams the session client's history rows as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.clientHistory(r.Context())
	if err != nil {
		if !errors.Is(err, store.ErrHistoryUnavailable) {
			s.logger.ErrorContext(r.Context(), "Export error", "error", err)
		}
		http.Error(w, "expense history unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses_`+s.clientID+`.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "category", "amount"})
	for _, rec := range records {
		_ = cw.Write([]string{rec.Date.ISO(), rec.Category, rec.Amount.Format()})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.ErrorContext(r.Context(), "Export write error", "error", err)
	}
}

// aggregates returns the cached full-history summary and monthly totals for
// the session client, recomputing both on a miss.
func (s *Server) aggregates(ctx context.Context) (core.PeriodSummary, []core.MonthAmount, error) {
	summary, haveSummary := s.summaryCache.Get(s.summaryKey())
	months, haveMonths := s.monthsCache.Get(s.monthsKey())
	if haveSummary && haveMonths {
		s.logger.Debug("Dashboard cache hit", "client_id", s.clientID)
		return summary, months, nil
	}

	records, err := s.clientHistory(ctx)
	if err != nil {
		return core.PeriodSummary{}, nil, err
	}

	summary = core.Summarize(records, core.Date{}, core.Date{})
	months = core.MonthlyTotals(records)
	s.summaryCache.Set(s.summaryKey(), summary)
	s.monthsCache.Set(s.monthsKey(), months)
	s.logger.Debug("Dashboard aggregates cached",
		"client_id", s.clientID,
		"total_cents", summary.Total.Cents,
		"categories", len(summary.ByCategory),
		"months", len(months))
	return summary, months, nil
}

func (s *Server) clientHistory(ctx context.Context) ([]core.HistoryRecord, error) {
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	records, err := s.history.LoadHistory(cctx)
	if err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(s.clientID)
	if err != nil {
		return nil, nil
	}
	var mine []core.HistoryRecord
	for _, rec := range records {
		if rec.ClientID == id {
			mine = append(mine, rec)
		}
	}
	return mine, nil
}

func barWidth(cents, maxCents int64) int {
	if maxCents <= 0 || cents <= 0 {
		return 0
	}
	width := int((cents*100 + maxCents/2) / maxCents) // rounded percent
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func (s *Server) setFlash(msg string) {
	s.flashMu.Lock()
	s.flash = msg
	s.flashMu.Unlock()
}

func (s *Server) takeFlash() string {
	s.flashMu.Lock()
	defer s.flashMu.Unlock()
	msg := s.flash
	s.flash = ""
	return msg
}
